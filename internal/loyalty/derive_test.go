package loyalty

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCustomerTierDefault(t *testing.T) {
	require.Equal(t, "ActiveGo", CustomerTier(&CustomerRecord{}))
	require.Equal(t, "ActiveGo", CustomerTier(nil))
	require.Equal(t, "ActivePro", CustomerTier(&CustomerRecord{CurrentSlab: "ActivePro"}))
}

func TestCustomerPointsDefault(t *testing.T) {
	require.Zero(t, CustomerPoints(&CustomerRecord{}))
	require.Zero(t, CustomerPoints(nil))
	require.Equal(t, 1250, CustomerPoints(&CustomerRecord{LoyaltyPoints: 1250}))
}

func TestCalculateProgress(t *testing.T) {
	cases := []struct {
		points     int
		tier       string
		percentage float64
		nextTarget int
	}{
		{15000, "ActiveFit", 60.0, 25000},
		{30000, "ActivePro", 60.0, 50000},
		{100000, "ActivePro", 100.0, 50000},
		{7500, "ActiveGo", 50.0, 15000},
		{0, "ActiveGo", 0.0, 15000},
		{1500, "UnknownTier", 10.0, 15000},
	}
	for _, tc := range cases {
		got := CalculateProgress(tc.points, tc.tier)
		require.InDelta(t, tc.percentage, got.Percentage, 0.001, "points=%d tier=%s", tc.points, tc.tier)
		require.Equal(t, tc.nextTarget, got.NextTarget)
	}
}

func TestCalculateRewardAmount(t *testing.T) {
	require.Equal(t, 10, CalculateRewardAmount(300))
	require.Equal(t, 9, CalculateRewardAmount(299))
	require.Equal(t, 0, CalculateRewardAmount(0))
	require.Equal(t, 100, CalculateRewardAmount(3000))
}

func TestFieldLookup(t *testing.T) {
	c := &CustomerRecord{
		CustomFields: FieldList{Field: []NameValue{
			{Name: "nationality", Value: "QA"},
		}},
		ExtendedFields: FieldList{Field: []NameValue{
			{Name: "gender", Value: "F"},
		}},
	}

	require.Equal(t, "QA", CustomField(c, "nationality"))
	require.Equal(t, "", CustomField(c, "dob"))
	require.Equal(t, "F", ExtendedField(c, "gender"))
	require.Equal(t, "", ExtendedField(c, "nationality"))
	require.Equal(t, "", CustomField(nil, "nationality"))
}

func TestConvertBothIssuedAndRedeemed(t *testing.T) {
	txs := []Transaction{{
		ID:          "77",
		Type:        "REGULAR",
		Amount:      "450.00",
		BillingTime: "2024-03-10 14:00:00",
		Store:       "Lagoona Mall",
		Points:      TransactionPoints{Issued: "100", Redeemed: "40"},
	}}

	activities := ConvertTransactionsToActivities(txs)
	require.Len(t, activities, 2)

	earned := activities[0]
	spent := activities[1]

	require.Equal(t, "77_earned", earned.ID)
	require.Equal(t, ActivityEarned, earned.Type)
	require.Equal(t, 100, earned.Points)

	require.Equal(t, "77_spent", spent.ID)
	require.Equal(t, ActivitySpent, spent.Type)
	require.Equal(t, -40, spent.Points)

	// Both entries share venue, date, and amount.
	require.Equal(t, earned.Venue, spent.Venue)
	require.Equal(t, earned.Date, spent.Date)
	require.Equal(t, earned.Amount, spent.Amount)
	require.Equal(t, "Lagoona Mall", earned.Venue)
	require.Equal(t, "10/03/2024", earned.Date)
}

func TestConvertSingleSided(t *testing.T) {
	txs := []Transaction{
		{ID: "1", Points: TransactionPoints{Issued: "50"}},
		{ID: "2", Points: TransactionPoints{Redeemed: "30"}},
	}

	activities := ConvertTransactionsToActivities(txs)
	require.Len(t, activities, 2)

	require.Equal(t, "1", activities[0].ID)
	require.Equal(t, ActivityEarned, activities[0].Type)
	require.Equal(t, 50, activities[0].Points)

	require.Equal(t, "2", activities[1].ID)
	require.Equal(t, ActivitySpent, activities[1].Type)
	require.Equal(t, -30, activities[1].Points)
}

func TestConvertZeroPoints(t *testing.T) {
	txs := []Transaction{
		{ID: "1", Type: "RETURN"},
		{ID: "2", Type: "REGULAR"},
	}

	activities := ConvertTransactionsToActivities(txs)
	require.Len(t, activities, 2)
	require.Equal(t, ActivitySpent, activities[0].Type)
	require.Zero(t, activities[0].Points)
	require.Equal(t, ActivityEarned, activities[1].Type)
	require.Zero(t, activities[1].Points)
}

func TestActivityDateBuckets(t *testing.T) {
	now := time.Now()
	today := now.Format("2006-01-02 15:04:05")
	require.Equal(t, "TODAY", activityDate(today))

	past := time.Date(2023, 12, 31, 9, 0, 0, 0, time.UTC)
	require.Equal(t, "31/12/2023", activityDate(past.Format("2006-01-02 15:04:05")))

	// Unparseable timestamps pass through untouched.
	require.Equal(t, "yesterday-ish", activityDate("yesterday-ish"))
}

func TestActivityDateDayBoundary(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1)
	want := fmt.Sprintf("%02d/%02d/%04d", yesterday.Day(), int(yesterday.Month()), yesterday.Year())
	require.Equal(t, want, activityDate(yesterday.Format("2006-01-02 15:04:05")))
}
