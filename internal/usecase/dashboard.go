package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

type Stats struct {
	TotalLeads           int64    `json:"totalLeads"`
	HotLeads             int64    `json:"hotLeads"`
	WarmLeads            int64    `json:"warmLeads"`
	ColdLeads            int64    `json:"coldLeads"`
	ScheduledViewings    int64    `json:"scheduledViewings"`
	ActiveSales          int64    `json:"activeSales"`
	ClosedDealsThisMonth int64    `json:"closedDealsThisMonth"`
	TotalRevenue         string   `json:"totalRevenue"`
	MonthlyGrowth        *float64 `json:"monthlyGrowth"`
}

type SalesPoint struct {
	Month string `json:"month"`
	Sales int64  `json:"sales"`
}

type LeadsPoint struct {
	Week  string `json:"week"`
	Leads int64  `json:"leads"`
}

type StatusSlice struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

type ViewingsPoint struct {
	Day       string `json:"day"`
	Completed int64  `json:"completed"`
	Scheduled int64  `json:"scheduled"`
}

type Charts struct {
	SalesChart         []SalesPoint    `json:"salesChart"`
	LeadsChart         []LeadsPoint    `json:"leadsChart"`
	StatusDistribution []StatusSlice   `json:"statusDistribution"`
	ViewingsChart      []ViewingsPoint `json:"viewingsChart"`
}

const (
	salesChartMonths = 6
	leadsChartWeeks  = 4
	viewingChartDays = 7
)

var statusColors = []StatusSlice{
	{Name: "Hot", Color: "#FFD700"},
	{Name: "Warm", Color: "#FFA500"},
	{Name: "Cold", Color: "#CD853F"},
}

// DashboardUseCase aggregates counts and revenue under the caller's scope.
type DashboardUseCase struct {
	Leads    entity.Store[entity.Lead]
	Viewings entity.Store[entity.Viewing]
	Sales    entity.Store[entity.Sale]
	Cache    StatsCache
	Now      Clock
}

func NewDashboardUseCase(leads entity.Store[entity.Lead], viewings entity.Store[entity.Viewing], sales entity.Store[entity.Sale], cache StatsCache) *DashboardUseCase {
	return &DashboardUseCase{Leads: leads, Viewings: viewings, Sales: sales, Cache: cache, Now: utcNow}
}

func (uc *DashboardUseCase) Stats(ctx context.Context, p entity.Principal) (*Stats, error) {
	var out Stats
	key := cacheKey("stats", p)
	if uc.cached(ctx, key, &out) {
		return &out, nil
	}

	leadScope := ScopeFilter(p, leadOwnerField)
	scope := ScopeFilter(p, activityOwnerField)
	now := uc.Now().UTC()
	monthStart := startOfMonth(now)

	counts := []struct {
		dst    *int64
		store  func(context.Context, bson.M) (int64, error)
		filter bson.M
	}{
		{&out.TotalLeads, uc.Leads.Count, leadScope},
		{&out.HotLeads, uc.Leads.Count, and(leadScope, bson.M{"status": entity.LeadHot})},
		{&out.WarmLeads, uc.Leads.Count, and(leadScope, bson.M{"status": entity.LeadWarm})},
		{&out.ColdLeads, uc.Leads.Count, and(leadScope, bson.M{"status": entity.LeadCold})},
		{&out.ScheduledViewings, uc.Viewings.Count, and(scope, bson.M{"status": entity.ViewingScheduled})},
		{&out.ActiveSales, uc.Sales.Count, and(scope, bson.M{"stage": bson.M{"$ne": entity.StageClosed}})},
	}
	for _, c := range counts {
		n, err := c.store(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("dashboard count: %w", err)
		}
		*c.dst = n
	}

	current, err := uc.closedSales(ctx, scope, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	previous, err := uc.closedSales(ctx, scope, monthStart.AddDate(0, -1, 0), monthStart)
	if err != nil {
		return nil, err
	}

	revenue := sumRevenue(ctx, current)
	out.ClosedDealsThisMonth = int64(len(current))
	out.TotalRevenue = revenue.String()
	out.MonthlyGrowth = growth(sumRevenue(ctx, previous), revenue)

	uc.store(ctx, key, &out)
	return &out, nil
}

func (uc *DashboardUseCase) Charts(ctx context.Context, p entity.Principal) (*Charts, error) {
	var out Charts
	key := cacheKey("charts", p)
	if uc.cached(ctx, key, &out) {
		return &out, nil
	}

	leadScope := ScopeFilter(p, leadOwnerField)
	scope := ScopeFilter(p, activityOwnerField)
	now := uc.Now().UTC()

	// Revenue per month, oldest first, ending with the current month.
	first := startOfMonth(now).AddDate(0, -(salesChartMonths - 1), 0)
	sales, err := uc.closedSales(ctx, scope, first, startOfMonth(now).AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	buckets := make([]entity.Cents, salesChartMonths)
	for _, s := range sales {
		i := monthsBetween(first, s.LastActivity.UTC())
		if i < 0 || i >= salesChartMonths {
			continue
		}
		c, err := entity.ParseMoney(s.Value)
		if err != nil {
			skipValue(ctx, s, err)
			continue
		}
		buckets[i] += c
	}
	out.SalesChart = make([]SalesPoint, salesChartMonths)
	for i := range buckets {
		out.SalesChart[i] = SalesPoint{Month: first.AddDate(0, i, 0).Format("Jan"), Sales: buckets[i].Dollars()}
	}

	// New leads per week, weeks starting Monday, ending with the current week.
	week := startOfWeek(now)
	out.LeadsChart = make([]LeadsPoint, leadsChartWeeks)
	for i := 0; i < leadsChartWeeks; i++ {
		from := week.AddDate(0, 0, -7*(leadsChartWeeks-1-i))
		n, err := uc.Leads.Count(ctx, and(leadScope, createdBetween(from, from.AddDate(0, 0, 7))))
		if err != nil {
			return nil, fmt.Errorf("count leads for week: %w", err)
		}
		out.LeadsChart[i] = LeadsPoint{Week: fmt.Sprintf("W%d", i+1), Leads: n}
	}

	out.StatusDistribution = make([]StatusSlice, len(statusColors))
	for i, s := range []string{entity.LeadHot, entity.LeadWarm, entity.LeadCold} {
		n, err := uc.Leads.Count(ctx, and(leadScope, bson.M{"status": s}))
		if err != nil {
			return nil, fmt.Errorf("count %s leads: %w", s, err)
		}
		out.StatusDistribution[i] = statusColors[i]
		out.StatusDistribution[i].Value = n
	}

	// Viewings created on each of the last seven days, today last.
	today := startOfDay(now)
	out.ViewingsChart = make([]ViewingsPoint, viewingChartDays)
	for i := 0; i < viewingChartDays; i++ {
		day := today.AddDate(0, 0, -(viewingChartDays - 1 - i))
		window := and(scope, createdBetween(day, day.AddDate(0, 0, 1)))
		completed, err := uc.Viewings.Count(ctx, and(window, bson.M{"status": entity.ViewingCompleted}))
		if err != nil {
			return nil, fmt.Errorf("count completed viewings: %w", err)
		}
		scheduled, err := uc.Viewings.Count(ctx, and(window, bson.M{"status": entity.ViewingScheduled}))
		if err != nil {
			return nil, fmt.Errorf("count scheduled viewings: %w", err)
		}
		out.ViewingsChart[i] = ViewingsPoint{Day: day.Weekday().String()[:3], Completed: completed, Scheduled: scheduled}
	}

	uc.store(ctx, key, &out)
	return &out, nil
}

func (uc *DashboardUseCase) closedSales(ctx context.Context, scope bson.M, from, to time.Time) ([]entity.Sale, error) {
	sales, err := uc.Sales.Find(ctx, and(scope, bson.M{
		"stage":         entity.StageClosed,
		"last_activity": bson.M{"$gte": from, "$lt": to},
	}), entity.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("find closed sales: %w", err)
	}
	return sales, nil
}

func (uc *DashboardUseCase) cached(ctx context.Context, key string, dst any) bool {
	if uc.Cache == nil {
		return false
	}
	hit, err := uc.Cache.Get(ctx, key, dst)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("dashboard cache read failed")
		return false
	}
	return hit
}

func (uc *DashboardUseCase) store(ctx context.Context, key string, v any) {
	if uc.Cache == nil {
		return
	}
	if err := uc.Cache.Set(ctx, key, v); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("dashboard cache write failed")
	}
}

// cacheKey partitions cached payloads the same way ScopeFilter partitions data.
func cacheKey(kind string, p entity.Principal) string {
	if p.IsAgent() {
		return "dashboard:" + kind + ":agent:" + entity.FormatID(p.UserID)
	}
	return "dashboard:" + kind + ":all"
}

// sumRevenue adds sale values exactly. Values that do not parse are logged and skipped.
func sumRevenue(ctx context.Context, sales []entity.Sale) entity.Cents {
	var total entity.Cents
	for _, s := range sales {
		c, err := entity.ParseMoney(s.Value)
		if err != nil {
			skipValue(ctx, s, err)
			continue
		}
		total += c
	}
	return total
}

func skipValue(ctx context.Context, s entity.Sale, err error) {
	zerolog.Ctx(ctx).Warn().Err(err).
		Str("sale_id", entity.FormatID(s.ID)).
		Str("value", s.Value).
		Msg("skipping sale with unparseable value")
}

// growth is the percent change from prev to cur, one decimal. Nil when prev is zero.
func growth(prev, cur entity.Cents) *float64 {
	if prev == 0 {
		return nil
	}
	g := float64(cur-prev) / float64(prev) * 100
	g = math.Round(g*10) / 10
	return &g
}

func createdBetween(from, to time.Time) bson.M {
	return bson.M{"created_at": bson.M{"$gte": from, "$lt": to}}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func monthsBetween(from, t time.Time) int {
	return (t.Year()-from.Year())*12 + int(t.Month()) - int(from.Month())
}
