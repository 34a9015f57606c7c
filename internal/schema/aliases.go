package schema

type Role string

const (
	RoleAmount   Role = "amount"
	RoleDatetime Role = "datetime"
	RoleEmployee Role = "employee"
	RoleItem     Role = "item"
	RoleCategory Role = "category"
	RoleVoid     Role = "void_flag"
	RoleDiscount Role = "discount_amount"
	RoleRemoval  Role = "removal_flag_or_amount"
	RoleReason   Role = "reason"
	RoleOrderID  Role = "order_id"
)

// Roles is the detection order.
var Roles = []Role{
	RoleAmount,
	RoleDatetime,
	RoleEmployee,
	RoleItem,
	RoleCategory,
	RoleVoid,
	RoleDiscount,
	RoleRemoval,
	RoleReason,
	RoleOrderID,
}

// Keys into AliasTable.Advanced. Multi-file analyses resolve each export on
// its own with exact matching.
const (
	AdvServer             = "server"
	AdvRevenue            = "revenue"
	AdvItemRevenue        = "item_revenue"
	AdvMenuItem           = "menu_item"
	AdvBottleItem         = "bottle_item"
	AdvQty                = "qty"
	AdvTable              = "table"
	AdvCheckID            = "check_id"
	AdvOrderID            = "order_id"
	AdvOrderDate          = "order_date"
	AdvCategory           = "sales_category"
	AdvAuxItem            = "aux_item"
	AdvAuxPrice           = "aux_price"
	AdvAuxQty             = "aux_qty"
	AdvVoidDate           = "void_date"
	AdvDiscountAmount     = "discount_amount"
	AdvApprover           = "approver"
	AdvComment            = "comment"
	AdvOpenedDate         = "opened_date"
	AdvLaborEmployee      = "labor_employee"
	AdvLaborNetSales      = "labor_net_sales"
	AdvLaborTotalPay      = "labor_total_pay"
	AdvLaborRegularHours  = "labor_regular_hours"
	AdvLaborOvertimeHours = "labor_overtime_hours"
)

// AliasTable is the versioned role-to-aliases configuration handed to the
// resolver. Order inside each list is priority.
type AliasTable struct {
	Version        string              `koanf:"version" json:"version" yaml:"version"`
	Roles          map[Role][]string   `koanf:"roles" json:"roles" yaml:"roles"`
	Modes          map[Role]MatchMode  `koanf:"modes" json:"modes" yaml:"modes"`
	DateCandidates []string            `koanf:"date_candidates" json:"date_candidates" yaml:"date_candidates"`
	Advanced       map[string][]string `koanf:"advanced" json:"advanced" yaml:"advanced"`
}

// Candidates returns the aliases for a role, nil when none are configured.
func (a AliasTable) Candidates(r Role) []string {
	return a.Roles[r]
}

// Mode defaults to Contains.
func (a AliasTable) Mode(r Role) MatchMode {
	if m, ok := a.Modes[r]; ok && m != "" {
		return m
	}
	return Contains
}

func (a AliasTable) AdvancedAliases(key string) []string {
	return a.Advanced[key]
}

const DefaultVersion = "2024.1"

// Date filter candidates. Business dates come before generic ones.
var defaultDateCandidates = []string{
	"sent date", "Sent Date", "order date", "Order Date", "date", "datetime",
	"created_at", "opened_at", "closed_at", "order_date", "business_date",
	"Business Date", "timestamp", "transaction_date", "sale_date", "Opened",
	"Created", "Close Date", "close date", "Check Opened", "check opened",
	"Check Closed", "check closed",
}

var extraDatetimeAliases = []string{
	"business_date", "order_date", "order date", "created", "created_at",
	"closed_at", "opened_at", "timestamp", "transaction_date", "sale_date",
	"sent date", "Sent Date", "check opened", "Check Opened", "check closed",
	"Check Closed", "close date", "Close Date",
}

// DefaultAliases returns a fresh copy of the built-in table.
func DefaultAliases() AliasTable {
	roles := map[Role][]string{
		RoleAmount: {
			"net_price", "net price", "net_sales", "net sales", "sales",
			"revenue", "amount", "total", "price",
		},
		RoleDatetime: append(append([]string{}, defaultDateCandidates...), extraDatetimeAliases...),
		RoleEmployee: {
			"server", "employee", "employee_name", "staff", "cashier", "user",
			"username", "server name", "Server Name", "Server", "Employee",
			"Created By", "Bartender",
		},
		RoleItem:     {"item", "item_name", "menu_item", "product", "product_name"},
		RoleCategory: {"category", "item_category", "product_category", "type", "department"},
		RoleVoid:     {"is_void", "is_voided", "voided", "void", "void_flag"},
		RoleDiscount: {"discount", "discount_amount", "discounted_amount", "promo", "comp"},
		RoleRemoval:  {"removed", "removal", "is_removed", "delete", "deleted"},
		RoleReason: {
			"void_reason", "reason", "comp_reason", "removal_reason", "note",
			"comment", "description",
		},
		RoleOrderID: {
			"order_id", "check_id", "tab_id", "ticket_id", "receipt",
			"transaction_id", "Order Id", "Check Id", "Ticket Id",
			"Receipt Number", "Transaction Id", "order id", "check id",
			"ticket id", "receipt number", "transaction id",
		},
	}
	for r, list := range roles {
		roles[r] = dedupeNormalized(list)
	}

	modes := make(map[Role]MatchMode, len(Roles))
	for _, r := range Roles {
		modes[r] = Contains
	}

	return AliasTable{
		Version:        DefaultVersion,
		Roles:          roles,
		Modes:          modes,
		DateCandidates: append([]string{}, defaultDateCandidates...),
		Advanced: map[string][]string{
			AdvServer:             {"Server", "server"},
			AdvRevenue:            {"Net Price", "net_price", "Total Price", "total_price"},
			AdvItemRevenue:        {"Net Price", "net_price"},
			AdvMenuItem:           {"Menu Item", "menu_item"},
			AdvBottleItem:         {"Menu Item", "menu_item", "Item Name", "item_name"},
			AdvQty:                {"Qty", "qty", "Quantity", "quantity"},
			AdvTable:              {"Table", "table"},
			AdvCheckID:            {"Check Id", "check_id"},
			AdvOrderID:            {"Order Id", "order_id"},
			AdvOrderDate:          {"Order Date", "order_date", "Sent Date", "sent_date"},
			AdvCategory:           {"Sales Category", "sales_category", "Category", "category"},
			AdvAuxItem:            {"Item Name", "item_name", "Menu Item", "menu_item"},
			AdvAuxPrice:           {"Total Price", "total_price"},
			AdvAuxQty:             {"Item Quantity", "item_quantity", "Quantity", "quantity"},
			AdvVoidDate:           {"Void Date", "void_date"},
			AdvDiscountAmount:     {"Discount Amount", "discount_amount", "Total Price", "total_price"},
			AdvApprover:           {"Approver", "approver"},
			AdvComment:            {"Comment", "comment"},
			AdvOpenedDate:         {"Opened Date", "opened_date"},
			AdvLaborEmployee:      {"Employee", "employee"},
			AdvLaborNetSales:      {"Net Sales", "net_sales"},
			AdvLaborTotalPay:      {"Total Pay", "total_pay"},
			AdvLaborRegularHours:  {"Regular Hours", "regular_hours"},
			AdvLaborOvertimeHours: {"Overtime Hours", "overtime_hours"},
		},
	}
}

// Merge overlays non-empty entries of o onto a copy of a.
func (a AliasTable) Merge(o AliasTable) AliasTable {
	out := AliasTable{
		Version:        a.Version,
		Roles:          make(map[Role][]string, len(a.Roles)),
		Modes:          make(map[Role]MatchMode, len(a.Modes)),
		DateCandidates: a.DateCandidates,
		Advanced:       make(map[string][]string, len(a.Advanced)),
	}
	for k, v := range a.Roles {
		out.Roles[k] = v
	}
	for k, v := range a.Modes {
		out.Modes[k] = v
	}
	for k, v := range a.Advanced {
		out.Advanced[k] = v
	}

	if o.Version != "" {
		out.Version = o.Version
	}
	for k, v := range o.Roles {
		if len(v) > 0 {
			out.Roles[k] = v
		}
	}
	for k, v := range o.Modes {
		if v == Exact || v == Contains {
			out.Modes[k] = v
		}
	}
	if len(o.DateCandidates) > 0 {
		out.DateCandidates = o.DateCandidates
	}
	for k, v := range o.Advanced {
		if len(v) > 0 {
			out.Advanced[k] = v
		}
	}
	return out
}

func dedupeNormalized(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		n := Normalize(s)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, s)
	}
	return out
}
