package validate

import (
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// BudgetInput is a fully validated budget creation body with defaults
// applied.
type BudgetInput struct {
	Name           string
	Amount         core.Money
	Period         string
	StartDate      core.Date
	EndDate        *core.Date
	AlertThreshold float64
	IsActive       bool
	CategoryID     string
}

// GoalInput is a fully validated goal creation body with defaults applied.
type GoalInput struct {
	Title         string
	Description   string
	TargetAmount  core.Money
	CurrentAmount core.Money
	TargetDate    *core.Date
	Priority      core.Priority
	CategoryID    string
}

// ProfilePatch is a validated partial profile update; nil fields were
// absent.
type ProfilePatch struct {
	FullName    *string
	AvatarURL   *string
	Currency    *string
	Timezone    *string
	Preferences *core.Preferences
}

// Budget validates a budget creation body.
func Budget(b Body) (*BudgetInput, error) {
	errs := &Errors{}
	in := &BudgetInput{AlertThreshold: 80, IsActive: true}

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

	amount, present := optCents(b, "amount", 0, errs)
	if !present {
		errs.add("amount", "is required")
	} else if amount != nil {
		in.Amount = *amount
	}

	period, present, ok := optString(b, "period")
	if !present || !ok || !validBudgetPeriod(period) {
		errs.add("period", "must be daily, weekly, monthly or yearly")
	} else {
		in.Period = period
	}

	start, present := optDate(b, "startDate", errs)
	if !present {
		errs.add("startDate", "is required")
	} else if start != nil {
		in.StartDate = *start
	}

	if end, present := optDate(b, "endDate", errs); present && end != nil {
		if start != nil && end.Before(start.Time) {
			errs.add("endDate", "must not precede startDate")
		} else {
			in.EndDate = end
		}
	}

	if v, present := b["alertThreshold"]; present && v != nil {
		s, ok := amountString(v)
		if !ok {
			errs.add("alertThreshold", "must be a number")
		} else if pct, err := strconv.ParseFloat(s, 64); err != nil || pct < 0 || pct > 100 {
			errs.add("alertThreshold", "must be between 0 and 100")
		} else {
			in.AlertThreshold = pct
		}
	}

	if active, present, ok := optBool(b, "isActive"); present {
		if !ok {
			errs.add("isActive", "must be a boolean")
		} else {
			in.IsActive = active
		}
	}

	if catID, present, ok := optString(b, "categoryId"); present {
		if !ok || !IsUUID(catID) {
			errs.add("categoryId", "invalid ID format")
		} else {
			in.CategoryID = catID
		}
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return in, nil
}

// Goal validates a goal creation body.
func Goal(b Body) (*GoalInput, error) {
	errs := &Errors{}
	in := &GoalInput{Priority: core.PriorityMedium}

	title, present, ok := optString(b, "title")
	switch {
	case !present || !ok:
		errs.add("title", "is required")
	case title == "":
		errs.add("title", "must not be empty")
	case len(title) > 200:
		errs.add("title", "too long (max 200 characters)")
	default:
		in.Title = title
	}

	if desc, present := boundedString(b, "description", 1000, errs); present && desc != nil {
		in.Description = *desc
	}

	target, present := optCents(b, "targetAmount", 1, errs)
	if !present {
		errs.add("targetAmount", "is required")
	} else if target != nil {
		in.TargetAmount = *target
	}

	if current, present := optCents(b, "currentAmount", 0, errs); present && current != nil {
		in.CurrentAmount = *current
	}

	if date, present := optDate(b, "targetDate", errs); present {
		in.TargetDate = date
	}

	if priority, present, ok := optString(b, "priority"); present {
		if !ok || !core.Priority(priority).Valid() {
			errs.add("priority", "must be low, medium or high")
		} else {
			in.Priority = core.Priority(priority)
		}
	}

	if catID, present, ok := optString(b, "categoryId"); present {
		if !ok || !IsUUID(catID) {
			errs.add("categoryId", "invalid ID format")
		} else {
			in.CategoryID = catID
		}
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return in, nil
}

// Profile validates a partial profile update body.
func Profile(b Body) (*ProfilePatch, error) {
	errs := &Errors{}
	p := &ProfilePatch{}

	if name, present := boundedString(b, "fullName", 100, errs); present {
		p.FullName = name
	}
	if avatar, present := boundedString(b, "avatarUrl", 500, errs); present {
		p.AvatarURL = avatar
	}

	if cur, present, ok := optString(b, "currency"); present {
		if !ok || len(cur) != 3 {
			errs.add("currency", "invalid currency code")
		} else {
			upper := strings.ToUpper(cur)
			p.Currency = &upper
		}
	}

	if tz, present, ok := optString(b, "timezone"); present {
		if !ok || tz == "" || len(tz) > 50 {
			errs.add("timezone", "invalid timezone")
		} else {
			p.Timezone = &tz
		}
	}

	if v, present := b["preferences"]; present && v != nil {
		raw, ok := v.(map[string]any)
		if !ok {
			errs.add("preferences", "must be an object")
		} else {
			pb := Body(raw)
			prefs := &core.Preferences{}
			if theme, present := boundedString(pb, "theme", 20, errs); present && theme != nil {
				prefs.Theme = *theme
			}
			if notif, present, ok := optBool(pb, "notifications"); present {
				if !ok {
					errs.add("preferences.notifications", "must be a boolean")
				} else {
					prefs.Notifications = notif
				}
			}
			if lang, present := boundedString(pb, "language", 10, errs); present && lang != nil {
				prefs.Language = *lang
			}
			if df, present := boundedString(pb, "dateFormat", 20, errs); present && df != nil {
				prefs.DateFormat = *df
			}
			p.Preferences = prefs
		}
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return p, nil
}
