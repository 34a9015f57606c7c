package advanced

import (
	"encoding/json"
	"math"
	"testing"

	"tap-analytics-service/internal/analysis"
	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/schema"
)

func fixtureTables() Tables {
	sales := dataset.New(
		[]string{"Order Id", "Check Id", "Order Date", "Server", "Menu Item", "Sales Category", "Net Price", "Qty", "Table"},
		[]dataset.Row{
			{"Order Id": "O1", "Check Id": "C1", "Order Date": "2024-06-14 20:00:00", "Server": "Alice Smith", "Menu Item": "Grey Goose BTL", "Sales Category": "Liquor", "Net Price": "400", "Qty": "1", "Table": "T1"},
			{"Order Id": "O1", "Check Id": "C1", "Order Date": "2024-06-14 20:00:00", "Server": "Alice Smith", "Menu Item": "Wings", "Sales Category": "Food", "Net Price": "20", "Qty": "1", "Table": "T1"},
			{"Order Id": "O2", "Check Id": "C2", "Order Date": "2024-06-14 21:00:00", "Server": "Bob Jones", "Menu Item": "Beer", "Sales Category": "Liquor", "Net Price": "10", "Qty": "2", "Table": "T2"},
			{"Order Id": "O3", "Check Id": "C3", "Order Date": "2024-06-15 21:30:00", "Server": "Bob Jones", "Menu Item": "Beer", "Sales Category": "Liquor", "Net Price": "10", "Qty": "2", "Table": nil},
		},
	)
	voids := dataset.New(
		[]string{"Server", "Item Name", "Total Price", "Item Quantity"},
		[]dataset.Row{{"Server": "Bob Jones", "Item Name": "Beer", "Total Price": "1", "Item Quantity": "1"}},
	)
	discounts := dataset.New(
		[]string{"Server", "Discount Amount", "Approver", "Comment", "Opened Date"},
		[]dataset.Row{
			{"Server": "Alice Smith", "Discount Amount": "600", "Approver": "Manager Mike", "Comment": nil, "Opened Date": "2024-06-14"},
			{"Server": "Bob Jones", "Discount Amount": "20", "Approver": "Bob Jones", "Comment": "comp", "Opened Date": "2024-06-15"},
			{"Server": "Alice Smith", "Discount Amount": "30", "Approver": "Manager Mike", "Comment": "birthday", "Opened Date": "2024-06-15"},
		},
	)
	labor := dataset.New(
		[]string{"Employee", "Net Sales", "Total Pay", "Regular Hours", "Overtime Hours"},
		[]dataset.Row{{"Employee": "Smith, Alice", "Net Sales": "400", "Total Pay": "100", "Regular Hours": "8", "Overtime Hours": "2"}},
	)
	return Tables{Sales: sales, Voids: voids, Discounts: discounts, Labor: labor}
}

func newSuite(mutate func(*analysis.Thresholds)) *Suite {
	th := analysis.DefaultThresholds()
	if mutate != nil {
		mutate(&th)
	}
	return New(schema.DefaultAliases(), th, nil)
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWasteEfficiencyZeroFillsMissingServers(t *testing.T) {
	rows := newSuite(nil).WasteEfficiency(fixtureTables())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	alice, bob := rows[0], rows[1]
	if alice.Server != "Alice Smith" || bob.Server != "Bob Jones" {
		t.Fatalf("expected revenue order Alice, Bob, got %s, %s", alice.Server, bob.Server)
	}
	if alice.TotalWaste != 0 || alice.Status != "Good" {
		t.Fatalf("expected zero waste and Good, got %v %s", alice.TotalWaste, alice.Status)
	}
	if alice.RevenuePerWasteDollar != 420 {
		t.Fatalf("expected 420 revenue per waste dollar, got %v", alice.RevenuePerWasteDollar)
	}
	if !closeTo(bob.WasteRatePct, 1/20.01*100) {
		t.Fatalf("unexpected waste rate %v", bob.WasteRatePct)
	}
}

func TestOffsetRatio(t *testing.T) {
	cases := []struct {
		name                string
		part, whole, offset float64
		expected            float64
	}{
		{name: "plain", part: 1, whole: 19.99, offset: 0.01, expected: 0.05},
		{name: "refund cancels offset", part: 5, whole: -0.01, offset: 0.01, expected: 0},
		{name: "waste cancels offset", part: 20, whole: -1, offset: 1, expected: 0},
		{name: "infinite part", part: math.Inf(1), whole: 10, offset: 1, expected: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := offsetRatio(tc.part, tc.whole, tc.offset); !closeTo(got, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestWasteEfficiencyRefundOnlyServerStaysFinite(t *testing.T) {
	tables := Tables{
		Sales: dataset.New(
			[]string{"Server", "Menu Item", "Net Price"},
			[]dataset.Row{{"Server": "Cara Lee", "Menu Item": "Wings", "Net Price": "-0.01"}},
		),
		Voids: dataset.New(
			[]string{"Server", "Item Name", "Total Price"},
			[]dataset.Row{{"Server": "Cara Lee", "Item Name": "Wings", "Total Price": "5"}},
		),
	}
	suite := newSuite(nil)
	rows := suite.WasteEfficiency(tables)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].WasteRatePct != 0 {
		t.Fatalf("expected a zero rate for a zero denominator, got %v", rows[0].WasteRatePct)
	}

	report := suite.Run(tables)
	if _, err := json.Marshal(report.Tables()); err != nil {
		t.Fatalf("expected tables to encode, got %v", err)
	}
}

func TestBottleConversion(t *testing.T) {
	rows, summary := newSuite(nil).BottleConversion(fixtureTables())
	if summary.TotalChecks != 2 {
		t.Fatalf("expected unseated check to be skipped, got %d checks", summary.TotalChecks)
	}
	if summary.BottlePct != 50 {
		t.Fatalf("expected 50%% bottle checks, got %v", summary.BottlePct)
	}
	if summary.AvgBottleCheck != 420 || summary.AvgNonBottleCheck != 10 || summary.BottlePremium != 42 {
		t.Fatalf("unexpected bottle summary %+v", summary)
	}
	if len(rows) != 2 || rows[0].Server != "Alice Smith" || rows[0].ConversionRate != 100 {
		t.Fatalf("unexpected bottle rows %+v", rows)
	}
}

func TestIsBottleItem(t *testing.T) {
	if !IsBottleItem("don julio btl") {
		t.Fatalf("expected lower-case btl to match")
	}
	if IsBottleItem("Bottled Water") {
		t.Fatalf("expected Bottled Water not to match")
	}
}

func TestDiscountIntegrity(t *testing.T) {
	audit := newSuite(nil).DiscountIntegrity(fixtureTables())

	if len(audit.ByServer) != 2 || audit.ByServer[0].TotalDiscounts != 630 || audit.ByServer[0].DiscountCount != 2 {
		t.Fatalf("unexpected server totals %+v", audit.ByServer)
	}
	if len(audit.ByApprover) != 2 || audit.ByApprover[0].Approver != "Manager Mike" {
		t.Fatalf("expected Manager Mike to lead approvers, got %+v", audit.ByApprover)
	}
	if len(audit.RedFlags) != 2 {
		t.Fatalf("expected 2 red flags, got %d", len(audit.RedFlags))
	}
	if audit.RedFlags[0].Type != FlagLargeNoComment || audit.RedFlags[0].Amount != 600 {
		t.Fatalf("expected large discount flag first, got %+v", audit.RedFlags[0])
	}
	if audit.RedFlags[1].Type != FlagSelfApproved || audit.RedFlags[1].Approver != "Bob Jones" {
		t.Fatalf("expected self-approval flag second, got %+v", audit.RedFlags[1])
	}
}

func TestFoodAttachmentMinimumLiquorChecks(t *testing.T) {
	rows, summary := newSuite(nil).FoodAttachment(fixtureTables())
	if len(rows) != 0 {
		t.Fatalf("expected servers under the liquor check minimum to be dropped, got %d rows", len(rows))
	}
	if !closeTo(summary.OverallRate, 100.0/3) {
		t.Fatalf("expected overall rate 33.3, got %v", summary.OverallRate)
	}

	rows, summary = newSuite(func(th *analysis.Thresholds) { th.AttachmentMinLiquorChecks = 1 }).FoodAttachment(fixtureTables())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Server != "Alice Smith" || rows[0].AttachmentRate != 100 {
		t.Fatalf("unexpected leader %+v", rows[0])
	}
	bob := rows[1]
	if bob.MissedChecks != 2 || bob.MissedRevenue != 40 {
		t.Fatalf("expected 2 missed checks worth 40, got %v / %v", bob.MissedChecks, bob.MissedRevenue)
	}
	if summary.AvgFoodSpend != 20 || summary.TotalMissedRevenue != 40 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestPeakHours(t *testing.T) {
	hourly, daily := newSuite(nil).PeakHours(fixtureTables())
	if len(hourly) != 2 {
		t.Fatalf("expected only populated hours, got %d", len(hourly))
	}
	if hourly[0].Key != 20 || hourly[0].NetPrice != 420 || hourly[0].Orders != 1 {
		t.Fatalf("unexpected top hour %+v", hourly[0])
	}
	if hourly[1].Orders != 2 {
		t.Fatalf("expected 2 orders at 21h, got %d", hourly[1].Orders)
	}
	if len(daily) != 2 || daily[0].Key != "Friday" || daily[1].Key != "Saturday" {
		t.Fatalf("expected calendar order Friday, Saturday, got %+v", daily)
	}
	if !closeTo(daily[0].PctRevenue+daily[1].PctRevenue, 100) {
		t.Fatalf("expected shares to add up to 100")
	}
}

func TestMenuVolatilityMinimumSales(t *testing.T) {
	rows := newSuite(nil).MenuVolatility(fixtureTables())
	if len(rows) != 0 {
		t.Fatalf("expected low sellers to be dropped, got %d rows", len(rows))
	}

	rows = newSuite(func(th *analysis.Thresholds) { th.VolatilityMinSales = 0 }).MenuVolatility(fixtureTables())
	if len(rows) != 3 {
		t.Fatalf("expected 3 items, got %d", len(rows))
	}
	if rows[0].MenuItem != "Beer" || rows[0].VoidValue != 1 || rows[0].Action != "OK" {
		t.Fatalf("unexpected top volatility row %+v", rows[0])
	}
}

func TestMatchEmployeeName(t *testing.T) {
	cases := []struct {
		server     string
		labor      string
		confidence float64
		ok         bool
	}{
		{server: "Alice Smith", labor: "Smith, Alice", confidence: 1, ok: true},
		{server: "alice  smith", labor: "Alice Smith", confidence: 1, ok: true},
		{server: "Smith Alice", labor: "Alice Smith", confidence: 0.8, ok: true},
		{server: "Alice", labor: "Smith, Alice", confidence: 0.6, ok: true},
		{server: "Bob Jones", labor: "Smith, Alice", ok: false},
		{server: "", labor: "Smith, Alice", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.server+"/"+tc.labor, func(t *testing.T) {
			got, ok := MatchEmployeeName(tc.server, tc.labor)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if ok && !closeTo(got, tc.confidence) {
				t.Fatalf("expected confidence %v, got %v", tc.confidence, got)
			}
		})
	}
}

func TestBestLaborMatchPrefersHigherConfidence(t *testing.T) {
	records := []LaborRecord{{Employee: "Alice Jones"}, {Employee: "Smith, Alice"}}
	rec, confidence, ok := BestLaborMatch("Alice Smith", records)
	if !ok || rec.Employee != "Smith, Alice" || confidence != 1 {
		t.Fatalf("expected exact match, got %+v %v %v", rec, confidence, ok)
	}
}

func TestHustleScore(t *testing.T) {
	r := EmployeeRow{
		TotalRevenue:          5000,
		ConversionRate:        10,
		AttachmentRate:        20,
		RevenuePerWasteDollar: 100,
		WasteRatePct:          5,
		DiscountRate:          2,
	}
	if got := HustleScore(r); got != 199 {
		t.Fatalf("expected 199, got %v", got)
	}
	if tier := analysis.DefaultThresholds().PerformanceTier(199); tier != "Top Performer" {
		t.Fatalf("expected Top Performer, got %s", tier)
	}
}

func TestEmployeePerformanceLaborJoin(t *testing.T) {
	rows := newSuite(nil).EmployeePerformance(fixtureTables())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	var alice, bob EmployeeRow
	for _, r := range rows {
		switch r.Server {
		case "Alice Smith":
			alice = r
		case "Bob Jones":
			bob = r
		}
	}
	if rows[0].HustleScore < rows[1].HustleScore {
		t.Fatalf("expected rows sorted by hustle score")
	}
	if !alice.LaborMatched || alice.HoursWorked != 10 || alice.RevenuePerHour != 42 {
		t.Fatalf("unexpected labor join %+v", alice)
	}
	if !closeTo(alice.ROI, -2.1) {
		t.Fatalf("expected ROI -2.1, got %v", alice.ROI)
	}
	if alice.TotalChecks != 1 || alice.TotalItems != 2 || alice.AvgCheckValue != 210 {
		t.Fatalf("unexpected base counts %+v", alice)
	}
	if bob.LaborMatched || bob.RevenuePerHour != 0 || bob.ROI != 0 {
		t.Fatalf("expected unmatched server to keep zero labor metrics, got %+v", bob)
	}
	if !closeTo(alice.HustleScore, HustleScore(alice)) {
		t.Fatalf("hustle score mismatch")
	}

	columns := employeeColumns(rows)
	found := false
	for _, c := range columns {
		if c == "Hours_Worked" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected labor columns when any server matched")
	}
}

func TestRunOnEmptyTables(t *testing.T) {
	report := Run(Tables{}, analysis.DefaultThresholds(), nil)
	if len(report.Tables()) != 0 {
		t.Fatalf("expected no tables, got %d", len(report.Tables()))
	}
	if report.KPIs()["bottle_premium"] != 0 {
		t.Fatalf("expected zero KPIs")
	}
}

func TestReportTablesKeepsNonEmpty(t *testing.T) {
	report := Run(fixtureTables(), analysis.DefaultThresholds(), nil)
	tables := report.Tables()
	for _, name := range []string{"waste_efficiency", "bottle_conversion", "discount_red_flags", "hourly_analysis", "employee_performance"} {
		if _, ok := tables[name]; !ok {
			t.Fatalf("expected table %s", name)
		}
	}
	if _, ok := tables["food_attachment"]; ok {
		t.Fatalf("expected empty food_attachment to be omitted")
	}
	if got := tables["hourly_analysis"].Data[0]["Hour"]; got != 20 {
		t.Fatalf("expected first hourly row keyed by hour 20, got %v", got)
	}
}
