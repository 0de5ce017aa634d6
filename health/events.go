package health

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jonwraymond/healthops/observe"
)

// EventID identifies one of the trace points emitted while checking health.
type EventID int

const (
	EventProcessingBegin EventID = 100
	EventProcessingEnd   EventID = 101
	EventCheckBegin      EventID = 102
	EventCheckEnd        EventID = 103
	EventCheckError      EventID = 104
	EventCheckData       EventID = 105
)

var eventNames = map[EventID]string{
	EventProcessingBegin: "HealthCheckProcessingBegin",
	EventProcessingEnd:   "HealthCheckProcessingEnd",
	EventCheckBegin:      "HealthCheckBegin",
	EventCheckEnd:        "HealthCheckEnd",
	EventCheckError:      "HealthCheckError",
	EventCheckData:       "HealthCheckData",
}

func (id EventID) String() string {
	if name, ok := eventNames[id]; ok {
		return name
	}
	return fmt.Sprintf("EventID(%d)", int(id))
}

func eventFields(id EventID, fields ...observe.Field) []observe.Field {
	return append([]observe.Field{
		{Key: "event.id", Value: int(id)},
		{Key: "event.name", Value: id.String()},
	}, fields...)
}

func durationMillis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func checkMeta(reg *Registration) observe.CheckMeta {
	return observe.CheckMeta{
		Name:     reg.Name,
		Tags:     reg.Tags,
		Fallback: reg.FallbackStatus.String(),
	}
}

func requireLogger(logger observe.Logger) error {
	if logger == nil {
		return invalidArgument("logger", "requires a logger to write the health check event")
	}
	return nil
}

func requireRegistration(reg *Registration) error {
	if reg == nil {
		return invalidArgument("registration", "requires a health check registration")
	}
	return nil
}

func requireDuration(d time.Duration) error {
	if d < 0 {
		return outOfRange("duration", d, "requires a positive time duration")
	}
	return nil
}

func requireStatus(s Status) error {
	if !s.Valid() {
		return outOfRange("status", int(s), "requires a status within the bounds of the enumeration")
	}
	return nil
}

// LogProcessingBegin records the start of an invocation.
func LogProcessingBegin(ctx context.Context, logger observe.Logger) error {
	if err := requireLogger(logger); err != nil {
		return err
	}
	logger.Debug(ctx, "Running health checks", eventFields(EventProcessingBegin)...)
	return nil
}

// LogProcessingEnd records the end of an invocation with its rolled-up status.
func LogProcessingEnd(ctx context.Context, logger observe.Logger, status Status, d time.Duration) error {
	if err := requireLogger(logger); err != nil {
		return err
	}
	if err := requireDuration(d); err != nil {
		return err
	}
	if err := requireStatus(status); err != nil {
		return err
	}
	msg := fmt.Sprintf("Health check processing completed after %gms with combined status %s", durationMillis(d), status)
	logger.Debug(ctx, msg, eventFields(EventProcessingEnd,
		observe.Field{Key: "duration_ms", Value: durationMillis(d)},
		observe.Field{Key: "status", Value: status.String()},
	)...)
	return nil
}

// LogCheckBegin records the start of one check.
func LogCheckBegin(ctx context.Context, logger observe.Logger, reg *Registration) error {
	if err := requireLogger(logger); err != nil {
		return err
	}
	if err := requireRegistration(reg); err != nil {
		return err
	}
	logger.WithCheck(checkMeta(reg)).Debug(ctx,
		fmt.Sprintf("Running health check %s", reg.Name), eventFields(EventCheckBegin)...)
	return nil
}

// LogCheckEnd records the outcome of one check, leveled by its status:
// healthy at debug, degraded at warn, unhealthy at error.
func LogCheckEnd(ctx context.Context, logger observe.Logger, reg *Registration, entry Entry, d time.Duration) error {
	if err := requireLogger(logger); err != nil {
		return err
	}
	if err := requireRegistration(reg); err != nil {
		return err
	}
	if entry.IsZero() {
		return invalidArgument("entry", "requires a health report entry with an assigned status")
	}
	if err := requireDuration(d); err != nil {
		return err
	}
	if err := requireStatus(entry.Status); err != nil {
		return err
	}

	msg := fmt.Sprintf("Health check %s completed after %gms with status %s and '%s'",
		reg.Name, durationMillis(d), entry.Status, entry.Description)
	fields := eventFields(EventCheckEnd,
		observe.Field{Key: "duration_ms", Value: durationMillis(d)},
		observe.Field{Key: "status", Value: entry.Status.String()},
		observe.Field{Key: "description", Value: entry.Description},
	)
	if entry.Error != nil {
		fields = append(fields, observe.Field{Key: "error", Value: entry.Error})
	}

	l := logger.WithCheck(checkMeta(reg))
	switch entry.Status {
	case StatusHealthy:
		l.Debug(ctx, msg, fields...)
	case StatusDegraded:
		l.Warn(ctx, msg, fields...)
	default:
		l.Error(ctx, msg, fields...)
	}
	return nil
}

// LogCheckEndFailed records a check whose factory returned no probe.
func LogCheckEndFailed(ctx context.Context, logger observe.Logger, reg *Registration, entry Entry, d time.Duration) error {
	if err := requireLogger(logger); err != nil {
		return err
	}
	if err := requireRegistration(reg); err != nil {
		return err
	}
	if entry.IsZero() {
		return invalidArgument("entry", "requires a health report entry with an assigned status")
	}
	if err := requireDuration(d); err != nil {
		return err
	}
	if err := requireStatus(entry.Status); err != nil {
		return err
	}

	msg := fmt.Sprintf("Health check %s completed after %gms with status %s and '%s'",
		reg.Name, durationMillis(d), entry.Status, entry.Description)
	logger.WithCheck(checkMeta(reg)).Error(ctx, msg, eventFields(EventCheckEnd,
		observe.Field{Key: "duration_ms", Value: durationMillis(d)},
		observe.Field{Key: "status", Value: entry.Status.String()},
		observe.Field{Key: "description", Value: entry.Description},
	)...)
	return nil
}

// LogCheckError records a check whose probe returned an error.
func LogCheckError(ctx context.Context, logger observe.Logger, reg *Registration, err error, d time.Duration) error {
	if lerr := requireLogger(logger); lerr != nil {
		return lerr
	}
	if rerr := requireRegistration(reg); rerr != nil {
		return rerr
	}
	if derr := requireDuration(d); derr != nil {
		return derr
	}

	msg := fmt.Sprintf("Health check %s threw an unhandled exception after %gms", reg.Name, durationMillis(d))
	logger.WithCheck(checkMeta(reg)).Error(ctx, msg, eventFields(EventCheckError,
		observe.Field{Key: "duration_ms", Value: durationMillis(d)},
		observe.Field{Key: "error", Value: err},
	)...)
	return nil
}

// LogCheckData records the data a check reported.
// Nothing is written unless data is non-empty and debug logging is enabled.
func LogCheckData(ctx context.Context, logger observe.Logger, reg *Registration, entry Entry) error {
	if err := requireLogger(logger); err != nil {
		return err
	}
	if err := requireRegistration(reg); err != nil {
		return err
	}
	if entry.IsZero() {
		return invalidArgument("entry", "requires a health report entry with an assigned status")
	}
	if len(entry.Data) == 0 || !logger.Enabled(observe.LevelDebug) {
		return nil
	}

	value, err := NewDataLogValue(reg.Name, entry.Data)
	if err != nil {
		return err
	}
	fields := eventFields(EventCheckData)
	for _, kv := range value.Items() {
		fields = append(fields, observe.Field{Key: "data." + kv.Key, Value: kv.Value})
	}
	logger.WithCheck(checkMeta(reg)).Debug(ctx, value.String(), fields...)
	return nil
}

// DataKeyCheckName is the synthetic data key naming the check in a data log.
const DataKeyCheckName = "HealthCheckName"

// KeyValue is one rendered datum.
type KeyValue struct {
	Key   string
	Value any
}

// DataLogValue renders check data for logging.
type DataLogValue struct {
	name  string
	items []KeyValue
}

// NewDataLogValue orders data by key and appends the check name under
// DataKeyCheckName.
func NewDataLogValue(name string, data map[string]any) (DataLogValue, error) {
	if strings.TrimSpace(name) == "" {
		return DataLogValue{}, invalidArgument("name", "requires a non-blank name for the health check registration name")
	}
	if data == nil {
		return DataLogValue{}, invalidArgument("data", "requires a set of health check data to format into a logging format")
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	items := make([]KeyValue, 0, len(keys)+1)
	for _, k := range keys {
		items = append(items, KeyValue{Key: k, Value: data[k]})
	}
	items = append(items, KeyValue{Key: DataKeyCheckName, Value: name})
	return DataLogValue{name: name, items: items}, nil
}

// Items returns the rendered data, including the synthetic name item.
func (v DataLogValue) Items() []KeyValue {
	return slices.Clone(v.items)
}

// String renders the "Health check data for <name>:" block, one indented
// "key: value" line per item. Values under redacted keys are masked.
func (v DataLogValue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Health check data for %s:\n", v.name)
	for _, kv := range v.items {
		b.WriteString("    ")
		b.WriteString(kv.Key)
		b.WriteString(": ")
		switch {
		case observe.IsRedacted(kv.Key):
			b.WriteString(observe.Redacted)
		case kv.Value != nil:
			fmt.Fprint(&b, kv.Value)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
