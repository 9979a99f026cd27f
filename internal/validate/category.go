package validate

import (
	"strconv"

	"fintrack/internal/core"
)

// Defaults applied when a category body omits the field.
const (
	DefaultCategoryIcon  = "📁"
	DefaultCategoryColor = "#3B82F6"
)

// CategoryInput is a fully validated category creation body with defaults
// applied.
type CategoryInput struct {
	Name        string
	Description string
	Type        core.EntryType
	Icon        string
	Color       string
	Budget      *core.Money
	Status      core.CategoryStatus
	Priority    core.Priority
	Tags        []string
	Metadata    core.CategoryMetadata
}

// CategoryPatch is a validated partial update; nil fields were absent.
type CategoryPatch struct {
	Name        *string
	Description *string
	Type        *core.EntryType
	Icon        *string
	Color       *string
	Budget      *core.Money
	Status      *core.CategoryStatus
	Priority    *core.Priority
	Tags        []string
	HasTags     bool
	Metadata    *core.CategoryMetadata
}

// Category validates a category creation body.
func Category(b Body) (*CategoryInput, error) {
	errs := &Errors{}
	in := &CategoryInput{
		Icon:     DefaultCategoryIcon,
		Color:    DefaultCategoryColor,
		Status:   core.CategoryActive,
		Priority: core.PriorityMedium,
		Tags:     []string{},
	}

	name, present, ok := optString(b, "name")
	switch {
	case !present || !ok:
		errs.add("name", "is required")
	case name == "":
		errs.add("name", "must not be empty")
	case len(name) > 100:
		errs.add("name", "too long (max 100 characters)")
	default:
		in.Name = name
	}

	if desc, present := boundedString(b, "description", 500, errs); present && desc != nil {
		in.Description = *desc
	}

	typ, present, ok := optString(b, "type")
	if !present || !ok || !core.EntryType(typ).Valid() {
		errs.add("type", "must be income or expense")
	} else {
		in.Type = core.EntryType(typ)
	}

	if icon, present := boundedString(b, "icon", 10, errs); present && icon != nil {
		if *icon == "" {
			errs.add("icon", "must not be empty")
		} else {
			in.Icon = *icon
		}
	}

	if color, present := boundedString(b, "color", 7, errs); present && color != nil {
		if !validColor(*color) {
			errs.add("color", "invalid hex color format")
		} else {
			in.Color = *color
		}
	}

	if budget, present := optCents(b, "budget", 0, errs); present {
		in.Budget = budget
	}

	if status, present, ok := optString(b, "status"); present {
		if !ok || !core.CategoryStatus(status).Valid() {
			errs.add("status", "must be active, inactive or archived")
		} else {
			in.Status = core.CategoryStatus(status)
		}
	}

	if priority, present, ok := optString(b, "priority"); present {
		if !ok || !core.Priority(priority).Valid() {
			errs.add("priority", "must be low, medium or high")
		} else {
			in.Priority = core.Priority(priority)
		}
	}

	if tags, present := optTags(b, "tags", 10, errs); present && tags != nil {
		in.Tags = tags
	}

	if meta, present := categoryMetadata(b, errs); present && meta != nil {
		in.Metadata = *meta
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return in, nil
}

// CategoryUpdate validates a partial category body. Only present fields are
// checked; no defaults apply.
func CategoryUpdate(b Body) (*CategoryPatch, error) {
	errs := &Errors{}
	p := &CategoryPatch{}

	if name, present, ok := optString(b, "name"); present {
		switch {
		case !ok:
			errs.add("name", "must be a string")
		case name == "":
			errs.add("name", "must not be empty")
		case len(name) > 100:
			errs.add("name", "too long (max 100 characters)")
		default:
			p.Name = &name
		}
	}

	if desc, present := boundedString(b, "description", 500, errs); present {
		p.Description = desc
	}

	if typ, present, ok := optString(b, "type"); present {
		if !ok || !core.EntryType(typ).Valid() {
			errs.add("type", "must be income or expense")
		} else {
			t := core.EntryType(typ)
			p.Type = &t
		}
	}

	if icon, present := boundedString(b, "icon", 10, errs); present && icon != nil {
		if *icon == "" {
			errs.add("icon", "must not be empty")
		} else {
			p.Icon = icon
		}
	}

	if color, present := boundedString(b, "color", 7, errs); present && color != nil {
		if !validColor(*color) {
			errs.add("color", "invalid hex color format")
		} else {
			p.Color = color
		}
	}

	if budget, present := optCents(b, "budget", 0, errs); present {
		p.Budget = budget
	}

	if status, present, ok := optString(b, "status"); present {
		if !ok || !core.CategoryStatus(status).Valid() {
			errs.add("status", "must be active, inactive or archived")
		} else {
			s := core.CategoryStatus(status)
			p.Status = &s
		}
	}

	if priority, present, ok := optString(b, "priority"); present {
		if !ok || !core.Priority(priority).Valid() {
			errs.add("priority", "must be low, medium or high")
		} else {
			pr := core.Priority(priority)
			p.Priority = &pr
		}
	}

	if tags, present := optTags(b, "tags", 10, errs); present {
		p.Tags = tags
		p.HasTags = tags != nil
	}

	if meta, present := categoryMetadata(b, errs); present {
		p.Metadata = meta
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return p, nil
}

func categoryMetadata(b Body, errs *Errors) (*core.CategoryMetadata, bool) {
	v, present := b["metadata"]
	if !present || v == nil {
		return nil, false
	}
	raw, ok := v.(map[string]any)
	if !ok {
		errs.add("metadata", "must be an object")
		return nil, true
	}
	mb := Body(raw)
	meta := &core.CategoryMetadata{}

	if subs, present := optTags(mb, "subcategories", 20, errs); present {
		meta.Subcategories = subs
	}
	if period, present, ok := optString(mb, "budgetPeriod"); present {
		if !ok || !validBudgetPeriod(period) {
			errs.add("metadata.budgetPeriod", "must be daily, weekly, monthly or yearly")
		} else {
			meta.BudgetPeriod = period
		}
	}
	if v, present := mb["alertThreshold"]; present && v != nil {
		s, ok := amountString(v)
		if !ok {
			errs.add("metadata.alertThreshold", "must be a number")
		} else if pct, err := strconv.ParseFloat(s, 64); err != nil || pct < 0 || pct > 100 {
			errs.add("metadata.alertThreshold", "must be between 0 and 100")
		} else {
			meta.AlertThreshold = &pct
		}
	}
	if notes, present := boundedString(mb, "notes", 1000, errs); present && notes != nil {
		meta.Notes = *notes
	}
	return meta, true
}

func validBudgetPeriod(s string) bool {
	switch s {
	case "daily", "weekly", "monthly", "yearly":
		return true
	}
	return false
}
