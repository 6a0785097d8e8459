package loyalty

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// DefaultTier is the entry-level slab assumed when the CRM record carries
// none.
const DefaultTier = "ActiveGo"

// nextTierTarget maps a tier to the lifetime-points target that fills its
// progress bar.
var nextTierTarget = map[string]int{
	"ActiveGo":  15000,
	"ActiveFit": 25000,
	"ActivePro": 50000,
}

// rewardRate encodes the fixed exchange of 300 points for 10 currency units.
const (
	rewardPointsStep = 300
	rewardUnitValue  = 10
)

func CustomerTier(c *CustomerRecord) string {
	if c == nil || c.CurrentSlab == "" {
		return DefaultTier
	}
	return c.CurrentSlab
}

func CustomerPoints(c *CustomerRecord) int {
	if c == nil {
		return 0
	}
	return int(c.LoyaltyPoints)
}

type Progress struct {
	Percentage float64 `json:"percentage"`
	NextTarget int     `json:"nextTarget"`
}

// CalculateProgress reports how far the given points reach toward the tier's
// target, capped at 100 percent. Unknown tiers fall back to the default.
func CalculateProgress(points int, tier string) Progress {
	target, ok := nextTierTarget[tier]
	if !ok {
		target = nextTierTarget[DefaultTier]
	}

	percentage := float64(points) / float64(target) * 100
	if percentage > 100 {
		percentage = 100
	}
	return Progress{Percentage: percentage, NextTarget: target}
}

// CalculateRewardAmount converts points to currency units at the fixed rate,
// flooring partial steps.
func CalculateRewardAmount(points int) int {
	return points * rewardUnitValue / rewardPointsStep
}

func CustomField(c *CustomerRecord, name string) string {
	if c == nil {
		return ""
	}
	return lookupField(c.CustomFields, name)
}

func ExtendedField(c *CustomerRecord, name string) string {
	if c == nil {
		return ""
	}
	return lookupField(c.ExtendedFields, name)
}

func lookupField(list FieldList, name string) string {
	for _, f := range list.Field {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Activity is the UI-facing projection of a transaction, split into earn and
// spend entries.
type Activity struct {
	ID     string `json:"id"`
	Type   string `json:"type"` // earned or spent
	Points int    `json:"points"`
	Venue  string `json:"venue"`
	Date   string `json:"date"` // "TODAY" or DD/MM/YYYY
	Amount string `json:"amount"`
}

const (
	ActivityEarned = "earned"
	ActivitySpent  = "spent"
)

// ConvertTransactionsToActivities projects transactions into activity
// entries. A transaction carrying both issued and redeemed points becomes two
// independent entries sharing venue, date, and amount; one with neither
// becomes a single zero-point entry typed by whether it is a RETURN.
func ConvertTransactionsToActivities(transactions []Transaction) []Activity {
	activities := make([]Activity, 0, len(transactions))
	for _, tx := range transactions {
		issued := numberToInt(tx.Points.Issued)
		redeemed := numberToInt(tx.Points.Redeemed)
		date := activityDate(tx.BillingTime)
		amount := tx.Amount.String()

		switch {
		case issued > 0 && redeemed > 0:
			activities = append(activities,
				Activity{
					ID:     tx.ID.String() + "_earned",
					Type:   ActivityEarned,
					Points: issued,
					Venue:  tx.Store,
					Date:   date,
					Amount: amount,
				},
				Activity{
					ID:     tx.ID.String() + "_spent",
					Type:   ActivitySpent,
					Points: -redeemed,
					Venue:  tx.Store,
					Date:   date,
					Amount: amount,
				},
			)
		case issued > 0:
			activities = append(activities, Activity{
				ID:     tx.ID.String(),
				Type:   ActivityEarned,
				Points: issued,
				Venue:  tx.Store,
				Date:   date,
				Amount: amount,
			})
		case redeemed > 0:
			activities = append(activities, Activity{
				ID:     tx.ID.String(),
				Type:   ActivitySpent,
				Points: -redeemed,
				Venue:  tx.Store,
				Date:   date,
				Amount: amount,
			})
		default:
			activityType := ActivityEarned
			if tx.Type == "RETURN" {
				activityType = ActivitySpent
			}
			activities = append(activities, Activity{
				ID:     tx.ID.String(),
				Type:   activityType,
				Points: 0,
				Venue:  tx.Store,
				Date:   date,
				Amount: amount,
			})
		}
	}
	return activities
}

var billingTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// activityDate buckets a billing timestamp into "TODAY" or DD/MM/YYYY for
// grouping by the caller. Unparseable timestamps pass through as-is.
func activityDate(billingTime string) string {
	var parsed time.Time
	var err error
	for _, layout := range billingTimeLayouts {
		parsed, err = time.Parse(layout, billingTime)
		if err == nil {
			break
		}
	}
	if err != nil {
		return billingTime
	}

	now := time.Now()
	if parsed.Year() == now.Year() && parsed.YearDay() == now.YearDay() {
		return "TODAY"
	}
	return fmt.Sprintf("%02d/%02d/%04d", parsed.Day(), int(parsed.Month()), parsed.Year())
}

// numberToInt floors a numeric-as-string value, tolerating both quoted and
// bare numbers. Anything unparseable counts as zero.
func numberToInt(n json.Number) int {
	if n == "" {
		return 0
	}
	if v, err := n.Int64(); err == nil {
		return int(v)
	}
	if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
		return int(math.Floor(f))
	}
	return 0
}
