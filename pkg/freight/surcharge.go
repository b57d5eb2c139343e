package freight

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FeeBand charges Fee when a measure lies in [Min, Max). A nil Max is open-ended.
type FeeBand struct {
	Min float64  `json:"min" yaml:"min"`
	Max *float64 `json:"max,omitempty" yaml:"max"`
	Fee float64  `json:"fee" yaml:"fee"`
}

func (b FeeBand) contains(v float64) bool {
	return v >= b.Min && (b.Max == nil || v < *b.Max)
}

func (b FeeBand) label() string {
	if b.Max == nil {
		return formatNum(b.Min) + "+"
	}
	return formatNum(b.Min) + "-" + formatNum(*b.Max)
}

// Schedule holds the built-in surcharge defaults. Special rules override
// individual entries per channel.
type Schedule struct {
	Overweight      []FeeBand // by actual weight, kg; first match wins
	Oversize        []FeeBand // by longest edge, cm; first match wins
	GirthThreshold  float64
	GirthFee        float64
	RemoteRatePerKg float64
	RemoteMinimum   float64
	CargoPerKg      map[CargoCategory]float64
	CustomsFee      float64
}

// DefaultGirthThresholdCm is the girth above which the excess-girth fee applies.
const DefaultGirthThresholdCm = 266.0

// DefaultSchedule returns the standard fee schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		Overweight: []FeeBand{
			{Min: 22.5, Max: ptr(40), Fee: 255},
			{Min: 30, Max: ptr(50), Fee: 100},
			{Min: 50, Max: ptr(80), Fee: 150},
		},
		Oversize: []FeeBand{
			{Min: 120, Max: ptr(240), Fee: 180},
			{Min: 200, Max: ptr(300), Fee: 300},
		},
		GirthThreshold:  DefaultGirthThresholdCm,
		GirthFee:        180,
		RemoteRatePerKg: 1.5,
		RemoteMinimum:   171,
		CargoPerKg: map[CargoCategory]float64{
			CargoProtective: 6,
			CargoSanitizer:  5,
			CargoTextile:    3,
		},
		CustomsFee: 350,
	}
}

func (s Schedule) clone() Schedule {
	c := s
	c.Overweight = append([]FeeBand(nil), s.Overweight...)
	c.Oversize = append([]FeeBand(nil), s.Oversize...)
	c.CargoPerKg = make(map[CargoCategory]float64, len(s.CargoPerKg))
	for k, v := range s.CargoPerKg {
		c.CargoPerKg[k] = v
	}
	return c
}

// cargoKeywords is checked in order; the first category with a matching
// keyword wins.
var cargoKeywords = []struct {
	category CargoCategory
	keywords []string
}{
	{CargoProtective, []string{"protective", "mask", "ppe", "防疫", "口罩", "防护服"}},
	{CargoSanitizer, []string{"sanitizer", "sanitiser", "洗手液"}},
	{CargoTextile, []string{"textile", "footwear", "shoe", "apparel", "纺织", "鞋"}},
}

// CategorizeCargo maps a category tag or free-text description to a
// CargoCategory.
func CategorizeCargo(text string) (CargoCategory, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}
	for _, ck := range cargoKeywords {
		if t == string(ck.category) {
			return ck.category, true
		}
	}
	for _, ck := range cargoKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(t, kw) {
				return ck.category, true
			}
		}
	}
	return "", false
}

// FeeInput carries the shipment attributes surcharges depend on.
type FeeInput struct {
	ChannelID          string
	ActualWeightKg     *float64
	ChargeableWeightKg float64
	Dimensions         *Dimensions
	Cargo              string // category tag or free text
	Remote             bool
	CustomsDeclaration bool
}

// SurchargeEngine computes additive fees.
type SurchargeEngine struct {
	schedule Schedule
}

// NewSurchargeEngine creates a SurchargeEngine with the given defaults.
func NewSurchargeEngine(schedule Schedule) *SurchargeEngine {
	return &SurchargeEngine{schedule: schedule}
}

// ComputeFees evaluates every fee independently and itemizes them in the
// order overweight, oversize, girth, remote, cargo, customs, then rule
// extras. Malformed rules are skipped and reported as ErrRuleConfig errors.
func (e *SurchargeEngine) ComputeFees(in FeeInput, rules []SpecialRule) (Surcharges, []error) {
	sched, extras, errs := applyRules(e.schedule.clone(), in, rules)

	items := make([]FeeItem, 0, 4)
	add := func(label string, amount float64) {
		if amount > 0 {
			items = append(items, FeeItem{Label: label, Amount: amount})
		}
	}

	if in.ActualWeightKg != nil {
		if b, ok := firstBand(sched.Overweight, *in.ActualWeightKg); ok {
			add("overweight "+b.label()+"kg", b.Fee)
		}
	}

	if in.Dimensions != nil {
		if b, ok := firstBand(sched.Oversize, LongestEdge(*in.Dimensions)); ok {
			add("oversize "+b.label()+"cm", b.Fee)
		}
		if g := Girth(*in.Dimensions); sched.GirthThreshold > 0 && g > sched.GirthThreshold {
			add(fmt.Sprintf("excess girth %scm>%scm", formatNum(g), formatNum(sched.GirthThreshold)), sched.GirthFee)
		}
	}

	if in.Remote {
		fee := sched.RemoteRatePerKg * in.ChargeableWeightKg
		if fee < sched.RemoteMinimum {
			fee = sched.RemoteMinimum
		}
		add("remote area", fee)
	}

	if category, ok := CategorizeCargo(in.Cargo); ok {
		weight := in.ChargeableWeightKg
		if in.ActualWeightKg != nil {
			weight = *in.ActualWeightKg
		}
		add("cargo "+string(category), sched.CargoPerKg[category]*weight)
	}

	if in.CustomsDeclaration {
		add("customs declaration", sched.CustomsFee)
	}

	items = append(items, extras...)

	var total float64
	for _, it := range items {
		total += it.Amount
	}
	return Surcharges{Items: items, Total: total}, errs
}

func firstBand(bands []FeeBand, v float64) (FeeBand, bool) {
	for _, b := range bands {
		if b.contains(v) {
			return b, true
		}
	}
	return FeeBand{}, false
}

type bandsParams struct {
	Bands []FeeBand `json:"bands"`
}

type girthParams struct {
	Threshold *float64 `json:"threshold"`
	Fee       *float64 `json:"fee"`
}

type remoteParams struct {
	Rate    *float64 `json:"rate"`
	Minimum *float64 `json:"minimum"`
}

type cargoParams struct {
	Category string  `json:"category"`
	PerKg    float64 `json:"perKg"`
}

type amountParams struct {
	Label  string  `json:"label"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// applyRules folds channel rules into the schedule and returns per-kg and
// flat extras in declared order.
func applyRules(sched Schedule, in FeeInput, rules []SpecialRule) (Schedule, []FeeItem, []error) {
	var extras []FeeItem
	var errs []error

	for _, r := range rules {
		if err := applyRule(&sched, &extras, in, r); err != nil {
			errs = append(errs, NewError(CodeRuleConfig,
				fmt.Sprintf("%s rule %q", r.Type, r.Description)).WithChannel(r.ChannelID).WithCause(err))
		}
	}
	return sched, extras, errs
}

func applyRule(sched *Schedule, extras *[]FeeItem, in FeeInput, r SpecialRule) error {
	switch r.Type {
	case RuleOverweight, RuleOversize:
		var p bandsParams
		if err := decodeParams(r.Params, &p, true); err != nil {
			return err
		}
		if err := validateFeeBands(p.Bands); err != nil {
			return err
		}
		if r.Type == RuleOverweight {
			sched.Overweight = p.Bands
		} else {
			sched.Oversize = p.Bands
		}

	case RuleGirth:
		var p girthParams
		if err := decodeParams(r.Params, &p, true); err != nil {
			return err
		}
		if p.Threshold == nil && p.Fee == nil {
			return errors.New("girth rule sets neither threshold nor fee")
		}
		if (p.Threshold != nil && *p.Threshold <= 0) || (p.Fee != nil && *p.Fee < 0) {
			return errors.New("girth threshold must be positive and fee non-negative")
		}
		if p.Threshold != nil {
			sched.GirthThreshold = *p.Threshold
		}
		if p.Fee != nil {
			sched.GirthFee = *p.Fee
		}

	case RuleRemote:
		var p remoteParams
		if err := decodeParams(r.Params, &p, false); err != nil {
			return err
		}
		if (p.Rate != nil && *p.Rate < 0) || (p.Minimum != nil && *p.Minimum < 0) {
			return errors.New("remote rate and minimum must be non-negative")
		}
		if p.Rate != nil {
			sched.RemoteRatePerKg = *p.Rate
		}
		if p.Minimum != nil {
			sched.RemoteMinimum = *p.Minimum
		}

	case RuleCargoSurcharge:
		var p cargoParams
		if err := decodeParams(r.Params, &p, true); err != nil {
			return err
		}
		category, ok := CategorizeCargo(p.Category)
		if !ok {
			return fmt.Errorf("unknown cargo category %q", p.Category)
		}
		if p.PerKg < 0 {
			return errors.New("cargo perKg must be non-negative")
		}
		sched.CargoPerKg[category] = p.PerKg

	case RulePerKg:
		var p amountParams
		if err := decodeParams(r.Params, &p, true); err != nil {
			return err
		}
		if p.Rate <= 0 {
			return errors.New("perKg rule needs a positive rate")
		}
		*extras = append(*extras, FeeItem{Label: ruleLabel(p.Label, r), Amount: p.Rate * in.ChargeableWeightKg})

	case RuleFlat:
		var p amountParams
		if err := decodeParams(r.Params, &p, true); err != nil {
			return err
		}
		if p.Amount <= 0 {
			return errors.New("flat rule needs a positive amount")
		}
		*extras = append(*extras, FeeItem{Label: ruleLabel(p.Label, r), Amount: p.Amount})

	default:
		return fmt.Errorf("unknown rule type %q", r.Type)
	}
	return nil
}

func decodeParams(raw []byte, v any, required bool) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		if required {
			return errors.New("missing params")
		}
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding params: %w", err)
	}
	return nil
}

func validateFeeBands(bands []FeeBand) error {
	for i, b := range bands {
		if b.Min < 0 || b.Fee < 0 {
			return fmt.Errorf("band %d: negative bound or fee", i)
		}
		if b.Max != nil && *b.Max <= b.Min {
			return fmt.Errorf("band %d: max %s not above min %s", i, formatNum(*b.Max), formatNum(b.Min))
		}
	}
	return nil
}

func ruleLabel(label string, r SpecialRule) string {
	if label != "" {
		return label
	}
	if r.Description != "" {
		return r.Description
	}
	return string(r.Type)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ptr(v float64) *float64 {
	return &v
}
