package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garagemon/garagemon/internal/config"
	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/internal/vehicle"
	"github.com/garagemon/garagemon/pkg/types"
)

const (
	defaultCooldown = 15 * time.Minute
	defaultSeverity = "warning"
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// Alert lifecycle states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// DefaultRules mirror the registry's own classification: one rule per
// non-empty vehicle.Alert.
func DefaultRules() []config.AlertRule {
	return []config.AlertRule{
		{Name: "sensor-failure", Condition: "alert == sensor-failure", Severity: "warning"},
		{Name: "severe-stress", Condition: "alert == severe-stress", Severity: "critical"},
	}
}

// Alert is one firing or resolved (rule, vehicle) pair.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	VehicleID  string     `json:"vehicle_id"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithHTTPClient overrides the webhook HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// Engine evaluates rules against vehicles and delivers webhook notifications
// when rules fire or resolve. Engine is safe for concurrent use.
type Engine struct {
	client *http.Client
	now    func() time.Time

	mu       sync.Mutex
	rules    []config.AlertRule
	webhooks []config.WebhookConfig
	active   map[string]*Alert    // key: rule + "/" + vehicle
	lastFire map[string]time.Time // for cooldown
	history  []*Alert

	inflight sync.WaitGroup
}

// New creates an Engine. Empty cfg.Rules selects DefaultRules.
func New(cfg config.AlertsConfig, opts ...Option) *Engine {
	e := &Engine{
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
	}
	for _, o := range opts {
		o(e)
	}
	e.rules = normalize(cfg.Rules)
	return e
}

func normalize(rules []config.AlertRule) []config.AlertRule {
	if len(rules) == 0 {
		return DefaultRules()
	}
	return append([]config.AlertRule(nil), rules...)
}

// Rules returns a copy of the active rule set.
func (e *Engine) Rules() []config.AlertRule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]config.AlertRule(nil), e.rules...)
}

// SetRules swaps the rule set and webhook targets. Alerts for rules that no
// longer exist are resolved.
func (e *Engine) SetRules(cfg config.AlertsConfig) {
	rules := normalize(cfg.Rules)
	names := make(map[string]bool, len(rules))
	for _, r := range rules {
		names[r.Name] = true
	}

	now := e.now()
	e.mu.Lock()
	e.rules = rules
	e.webhooks = cfg.Webhooks
	var resolved []Alert
	for key, a := range e.active {
		if names[a.RuleName] {
			continue
		}
		resolved = append(resolved, e.resolveLocked(key, a, now))
	}
	e.mu.Unlock()

	slog.Info("alerts: rules updated", "rules", len(rules), "dropped", len(resolved))
	for i := range resolved {
		e.dispatch(&resolved[i])
	}
}

// Observe evaluates the ingested vehicle. Its signature matches
// registry.Observer.
func (e *Engine) Observe(_ types.Diagnostic, en registry.Entry) {
	e.Evaluate(en.Vehicle, en.Status)
}

// Sweep evaluates every entry, typically a registry snapshot.
func (e *Engine) Sweep(entries []registry.Entry) {
	for _, en := range entries {
		e.Evaluate(en.Vehicle, en.Status)
	}
}

// Evaluate tests every rule against one vehicle. A rule that starts matching
// fires unless it fired for this vehicle within its cooldown; a firing rule
// that stops matching resolves. Notifications are delivered asynchronously.
func (e *Engine) Evaluate(v vehicle.Vehicle, st registry.Status) {
	now := e.now()

	var notify []Alert
	e.mu.Lock()
	for _, rule := range e.rules {
		key := rule.Name + "/" + v.ID
		fires, value := evalCondition(rule.Condition, v, st)
		a, firing := e.active[key]

		switch {
		case fires && firing:
			a.Value = value
		case fires:
			cooldown := rule.Cooldown
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			if last, ok := e.lastFire[key]; ok && now.Sub(last) < cooldown {
				continue
			}
			sev := rule.Severity
			if sev == "" {
				sev = defaultSeverity
			}
			a = &Alert{
				ID:        uuid.NewString(),
				RuleName:  rule.Name,
				VehicleID: v.ID,
				Severity:  sev,
				Value:     value,
				Message: fmt.Sprintf("[%s] %s fired on %s: %s (value %.2f)",
					sev, rule.Name, v.ID, rule.Condition, value),
				FiredAt: now,
				State:   StateFiring,
			}
			e.active[key] = a
			e.lastFire[key] = now
			notify = append(notify, *a)
			slog.Warn("alerts: fired", "rule", rule.Name, "vehicle", v.ID,
				"value", value, "severity", sev)
		case firing:
			notify = append(notify, e.resolveLocked(key, a, now))
			slog.Info("alerts: resolved", "rule", rule.Name, "vehicle", v.ID)
		}
	}
	e.mu.Unlock()

	for i := range notify {
		e.dispatch(&notify[i])
	}
}

// resolveLocked moves a from active to history and returns a copy.
func (e *Engine) resolveLocked(key string, a *Alert, now time.Time) Alert {
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	return *a
}

// Active returns copies of all firing alerts plus alerts resolved within the
// past hour, newest first.
func (e *Engine) Active() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, *a)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FiredAt.Equal(out[j].FiredAt) {
			return out[i].FiredAt.After(out[j].FiredAt)
		}
		if out[i].VehicleID != out[j].VehicleID {
			return out[i].VehicleID < out[j].VehicleID
		}
		return out[i].RuleName < out[j].RuleName
	})
	return out
}

// Firing returns the number of currently firing alerts.
func (e *Engine) Firing() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// Wait blocks until every in-flight webhook delivery has finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) dispatch(a *Alert) {
	e.mu.Lock()
	hooks := e.webhooks
	e.mu.Unlock()
	if len(hooks) == 0 {
		return
	}
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.deliver(hooks, a)
	}()
}
