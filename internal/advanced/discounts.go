package advanced

import (
	"sort"

	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"
)

const (
	FlagLargeNoComment = "Large discount without comment"
	FlagSelfApproved   = "Self-approved discount"
)

var (
	discountColumns = []string{"Server", "Total_Discounts", "Discount_Count"}
	approverColumns = []string{"Approver", "Total_Approved", "Approval_Count"}
	redFlagColumns  = []string{"type", "server", "amount", "date", "approver"}
)

type DiscountRow struct {
	Server         string
	TotalDiscounts float64
	DiscountCount  int
}

func (r DiscountRow) record() map[string]any {
	return map[string]any{
		"Server":          r.Server,
		"Total_Discounts": r.TotalDiscounts,
		"Discount_Count":  r.DiscountCount,
	}
}

type ApproverRow struct {
	Approver      string
	TotalApproved float64
	ApprovalCount int
}

func (r ApproverRow) record() map[string]any {
	return map[string]any{
		"Approver":       r.Approver,
		"Total_Approved": r.TotalApproved,
		"Approval_Count": r.ApprovalCount,
	}
}

// RedFlag is one discount surfaced for review.
type RedFlag struct {
	Type     string  `json:"type"`
	Server   string  `json:"server"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Approver string  `json:"approver"`
}

func (r RedFlag) record() map[string]any {
	return map[string]any{
		"type":     r.Type,
		"server":   r.Server,
		"amount":   r.Amount,
		"date":     r.Date,
		"approver": r.Approver,
	}
}

type DiscountAudit struct {
	ByServer   []DiscountRow
	ByApprover []ApproverRow
	RedFlags   []RedFlag
}

type discountAgg struct {
	total float64
	count int
}

// DiscountIntegrity totals discounts per server and approver and flags
// individual rows: large discounts with no comment, and self-approvals.
func (s *Suite) DiscountIntegrity(t Tables) DiscountAudit {
	d := t.Discounts
	serverCol, ok := s.col(d, schema.AdvServer)
	if !ok {
		return DiscountAudit{}
	}
	amountCol, ok := s.col(d, schema.AdvDiscountAmount)
	if !ok {
		return DiscountAudit{}
	}
	approverCol, hasApprover := s.col(d, schema.AdvApprover)
	commentCol, hasComment := s.col(d, schema.AdvComment)
	dateCol, hasDate := s.col(d, schema.AdvOpenedDate)

	byServer := map[string]*discountAgg{}
	byApprover := map[string]*discountAgg{}
	add := func(m map[string]*discountAgg, key string, v any) {
		a := m[key]
		if a == nil {
			a = &discountAgg{}
			m[key] = a
		}
		if amount, ok := dataset.Float(v); ok {
			a.total += amount
			a.count++
		}
	}

	var flags, selfApproved []RedFlag
	for _, row := range d.Rows {
		server, hasServer := dataset.GroupKey(row[serverCol])
		if hasServer {
			add(byServer, server, row[amountCol])
		}
		approver := ""
		if hasApprover {
			var ok bool
			if approver, ok = dataset.GroupKey(row[approverCol]); ok {
				add(byApprover, approver, row[amountCol])
			}
		}
		date := ""
		if hasDate {
			date = text(row[dateCol])
		}
		amount := dataset.FloatOr0(row[amountCol])

		if hasComment && amount > s.thresholds.LargeDiscount && text(row[commentCol]) == "" {
			flags = append(flags, RedFlag{Type: FlagLargeNoComment, Server: server, Amount: amount, Date: date, Approver: approver})
		}
		if hasApprover && hasServer && approver != "" && server == approver {
			selfApproved = append(selfApproved, RedFlag{Type: FlagSelfApproved, Server: server, Amount: amount, Date: date, Approver: approver})
		}
	}

	audit := DiscountAudit{RedFlags: append(flags, selfApproved...)}
	for _, server := range sortedKeys(byServer) {
		a := byServer[server]
		audit.ByServer = append(audit.ByServer, DiscountRow{Server: server, TotalDiscounts: a.total, DiscountCount: a.count})
	}
	for _, approver := range sortedKeys(byApprover) {
		a := byApprover[approver]
		audit.ByApprover = append(audit.ByApprover, ApproverRow{Approver: approver, TotalApproved: a.total, ApprovalCount: a.count})
	}
	sort.SliceStable(audit.ByApprover, func(i, j int) bool {
		return audit.ByApprover[i].TotalApproved > audit.ByApprover[j].TotalApproved
	})
	return audit
}
