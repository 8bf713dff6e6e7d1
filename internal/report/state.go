package report

// State is the operator's view of one day's report
type State struct {
	StartTime      TimeOfDay `json:"start_time"`
	EndTime        TimeOfDay `json:"end_time"`
	ExtraAmount    string    `json:"extra_amount"`
	IsEditingExtra bool      `json:"is_editing_extra"`
	UnpaidTotal    float64   `json:"unpaid_total"`
	PaidCount      int       `json:"paid_count"`
	UnpaidCount    int       `json:"unpaid_count"`
	MorningCount   int       `json:"morning_count"`
	SelectedDate   Date      `json:"selected_date"`
}

// DefaultStartTime and DefaultEndTime describe the usual noon-to-midnight shift
var (
	DefaultStartTime = TimeOfDay{Hour: 12}
	DefaultEndTime   = TimeOfDay{}
)

// NewState returns the defaults for a freshly selected date
func NewState(date Date) State {
	return State{
		StartTime:    DefaultStartTime,
		EndTime:      DefaultEndTime,
		ExtraAmount:  zeroAmount,
		SelectedDate: date,
	}
}

// Figures derives the payroll numbers from the state
func (s State) Figures() Figures {
	hours := WorkingHours(s.StartTime, s.EndTime)
	f := Figures{
		WorkingHours:          hours,
		HoursPayment:          HoursPayment(hours),
		PaidReceiptsDeduction: PaidReceiptsDeduction(s.PaidCount),
		ExtraAmount:           ParseExtraAmount(s.ExtraAmount),
		UnpaidTotal:           s.UnpaidTotal,
		PaidCount:             s.PaidCount,
		UnpaidCount:           s.UnpaidCount,
		TotalCount:            s.PaidCount + s.UnpaidCount,
		MorningCount:          s.MorningCount,
	}
	f.FinalTotal = f.UnpaidTotal - f.HoursPayment - f.PaidReceiptsDeduction - f.ExtraAmount
	return f
}
