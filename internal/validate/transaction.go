package validate

import (
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// TransactionInput is a fully validated transaction creation body with
// defaults applied.
type TransactionInput struct {
	Title         string
	Description   string
	Amount        core.Money
	Type          core.EntryType
	Status        core.TransactionStatus
	Date          core.Date
	Location      string
	PaymentMethod string
	Reference     string
	Tags          []string
	CategoryID    string
	Metadata      core.TransactionMetadata
}

// TransactionPatch is a validated partial update; nil fields were absent.
type TransactionPatch struct {
	Title         *string
	Description   *string
	Amount        *core.Money
	Type          *core.EntryType
	Status        *core.TransactionStatus
	Date          *core.Date
	Location      *string
	PaymentMethod *string
	Reference     *string
	Tags          []string
	HasTags       bool
	CategoryID    *string
	Metadata      *core.TransactionMetadata
}

// Transaction validates a transaction creation body.
func Transaction(b Body) (*TransactionInput, error) {
	errs := &Errors{}
	in := &TransactionInput{
		Status: core.StatusCompleted,
		Tags:   []string{},
	}

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

	// Transactions reject amount <= 0; only budget ceilings allow zero.
	amount, present := optCents(b, "amount", 1, errs)
	if !present {
		errs.add("amount", "is required")
	} else if amount != nil {
		in.Amount = *amount
	}

	typ, present, ok := optString(b, "type")
	if !present || !ok || !core.EntryType(typ).Valid() {
		errs.add("type", "must be income or expense")
	} else {
		in.Type = core.EntryType(typ)
	}

	if status, present, ok := optString(b, "status"); present {
		if !ok || !core.TransactionStatus(status).Valid() {
			errs.add("status", "must be completed, pending or failed")
		} else {
			in.Status = core.TransactionStatus(status)
		}
	}

	date, present := optDate(b, "date", errs)
	if !present {
		errs.add("date", "is required")
	} else if date != nil {
		in.Date = *date
	}

	if loc, present := boundedString(b, "location", 200, errs); present && loc != nil {
		in.Location = *loc
	}
	if pm, present := boundedString(b, "paymentMethod", 50, errs); present && pm != nil {
		in.PaymentMethod = *pm
	}
	if ref, present := boundedString(b, "reference", 100, errs); present && ref != nil {
		in.Reference = *ref
	}

	if tags, present := optTags(b, "tags", 10, errs); present && tags != nil {
		in.Tags = tags
	}

	catID, present, ok := optString(b, "categoryId")
	if !present || !ok || !IsUUID(catID) {
		errs.add("categoryId", "invalid ID format")
	} else {
		in.CategoryID = catID
	}

	if meta, present := transactionMetadata(b, errs); present && meta != nil {
		in.Metadata = *meta
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return in, nil
}

// TransactionUpdate validates a partial transaction body.
func TransactionUpdate(b Body) (*TransactionPatch, error) {
	errs := &Errors{}
	p := &TransactionPatch{}

	if title, present, ok := optString(b, "title"); present {
		switch {
		case !ok:
			errs.add("title", "must be a string")
		case title == "":
			errs.add("title", "must not be empty")
		case len(title) > 200:
			errs.add("title", "too long (max 200 characters)")
		default:
			p.Title = &title
		}
	}

	if desc, present := boundedString(b, "description", 1000, errs); present {
		p.Description = desc
	}

	if amount, present := optCents(b, "amount", 1, errs); present {
		p.Amount = amount
	}

	if typ, present, ok := optString(b, "type"); present {
		if !ok || !core.EntryType(typ).Valid() {
			errs.add("type", "must be income or expense")
		} else {
			t := core.EntryType(typ)
			p.Type = &t
		}
	}

	if status, present, ok := optString(b, "status"); present {
		if !ok || !core.TransactionStatus(status).Valid() {
			errs.add("status", "must be completed, pending or failed")
		} else {
			s := core.TransactionStatus(status)
			p.Status = &s
		}
	}

	if date, present := optDate(b, "date", errs); present {
		p.Date = date
	}

	if loc, present := boundedString(b, "location", 200, errs); present {
		p.Location = loc
	}
	if pm, present := boundedString(b, "paymentMethod", 50, errs); present {
		p.PaymentMethod = pm
	}
	if ref, present := boundedString(b, "reference", 100, errs); present {
		p.Reference = ref
	}

	if tags, present := optTags(b, "tags", 10, errs); present {
		p.Tags = tags
		p.HasTags = tags != nil
	}

	if catID, present, ok := optString(b, "categoryId"); present {
		if !ok || !IsUUID(catID) {
			errs.add("categoryId", "invalid ID format")
		} else {
			p.CategoryID = &catID
		}
	}

	if meta, present := transactionMetadata(b, errs); present {
		p.Metadata = meta
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return p, nil
}

func transactionMetadata(b Body, errs *Errors) (*core.TransactionMetadata, bool) {
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
	meta := &core.TransactionMetadata{}

	if sub, present := boundedString(mb, "subcategory", 50, errs); present && sub != nil {
		meta.Subcategory = *sub
	}
	if vendor, present := boundedString(mb, "vendor", 100, errs); present && vendor != nil {
		meta.Vendor = *vendor
	}
	if rec, present, ok := optBool(mb, "recurring"); present {
		if !ok {
			errs.add("metadata.recurring", "must be a boolean")
		} else {
			meta.Recurring = rec
		}
	}
	if interval, present, ok := optString(mb, "recurringInterval"); present {
		if !ok || !validBudgetPeriod(interval) {
			errs.add("metadata.recurringInterval", "must be daily, weekly, monthly or yearly")
		} else {
			meta.RecurringInterval = interval
		}
	}
	if v, present := mb["attachments"]; present && v != nil {
		raw, ok := v.([]any)
		if !ok {
			errs.add("metadata.attachments", "must be an array of URLs")
		} else {
			urls := make([]string, 0, len(raw))
			for _, item := range raw {
				s, ok := item.(string)
				if !ok || !strings.HasPrefix(s, "http") {
					errs.add("metadata.attachments", "must be an array of URLs")
					urls = nil
					break
				}
				urls = append(urls, s)
			}
			meta.Attachments = urls
		}
	}
	if notes, present := boundedString(mb, "notes", 1000, errs); present && notes != nil {
		meta.Notes = *notes
	}
	if v, present := mb["exchangeRate"]; present && v != nil {
		s, ok := amountString(v)
		if !ok {
			errs.add("metadata.exchangeRate", "must be a number")
		} else if rate, err := strconv.ParseFloat(s, 64); err != nil || rate <= 0 {
			errs.add("metadata.exchangeRate", "must be a positive number")
		} else {
			meta.ExchangeRate = &rate
		}
	}
	if amount, present := optCents(mb, "originalAmount", 1, errs); present {
		meta.OriginalAmount = amount
	}
	if cur, present, ok := optString(mb, "originalCurrency"); present {
		if !ok || len(cur) != 3 {
			errs.add("metadata.originalCurrency", "invalid currency code")
		} else {
			meta.OriginalCurrency = strings.ToUpper(cur)
		}
	}
	return meta, true
}
