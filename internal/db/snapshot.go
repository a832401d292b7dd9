package db

import (
	"sort"
	"time"

	"github.com/gurutech/guru-erp/internal/models"
)

const amcWarningDays = 30

// ComputeAMCExpiries derives the expiring-AMC dashboard view from the
// customer list: machines with an active contract expiring within the
// warning window, overdue ones included with negative days remaining.
func ComputeAMCExpiries(customers []models.Customer, now time.Time) []models.AMCExpiry {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var out []models.AMCExpiry
	for _, c := range customers {
		for _, m := range c.Machines {
			if !m.AMCActive || m.AMCExpiry == "" {
				continue
			}
			expiry, err := time.ParseInLocation("2006-01-02", m.AMCExpiry, now.Location())
			if err != nil {
				continue
			}
			days := int(expiry.Sub(today).Hours() / 24)
			if days > amcWarningDays {
				continue
			}
			out = append(out, models.AMCExpiry{
				CustomerID:    c.ID,
				CustomerName:  c.Name,
				MachineModel:  m.ModelNo,
				ExpiryDate:    m.AMCExpiry,
				DaysRemaining: days,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DaysRemaining < out[j].DaysRemaining })
	return out
}

// stripPasswords clears password hashes before a snapshot leaves the store.
func stripPasswords(users []models.User) []models.User {
	out := make([]models.User, len(users))
	copy(out, users)
	for i := range out {
		out[i].PasswordHash = ""
	}
	return out
}
