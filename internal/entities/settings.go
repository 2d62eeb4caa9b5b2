package entities

// Defaults for the points economy when the user never configured it.
const (
	DefaultPointsPerBook = 10
	DefaultPointsPerSaga = 50
	DefaultPurchaseCost  = 100
)

// Settings is the user's library configuration. Every field is optional;
// updates are merged shallowly, so a nil field means "keep what is there".
type Settings struct {
	EnablePoints  *bool `json:"enablePoints,omitempty"`
	EnableSagas   *bool `json:"enableSagas,omitempty"`
	EnableScanner *bool `json:"enableScanner,omitempty"`

	YearlyGoal  *int `json:"yearlyGoal,omitempty"`
	MonthlyGoal *int `json:"monthlyGoal,omitempty"`

	PointsPerBook *int `json:"pointsPerBook,omitempty"`
	PointsPerSaga *int `json:"pointsPerSaga,omitempty"`
	PurchaseCost  *int `json:"purchaseCost,omitempty"`

	PreferredCamera *string `json:"preferredCamera,omitempty"`
}

// Merge returns a copy of s with every non-nil field of patch applied.
func (s Settings) Merge(patch Settings) Settings {
	if patch.EnablePoints != nil {
		s.EnablePoints = patch.EnablePoints
	}
	if patch.EnableSagas != nil {
		s.EnableSagas = patch.EnableSagas
	}
	if patch.EnableScanner != nil {
		s.EnableScanner = patch.EnableScanner
	}
	if patch.YearlyGoal != nil {
		s.YearlyGoal = patch.YearlyGoal
	}
	if patch.MonthlyGoal != nil {
		s.MonthlyGoal = patch.MonthlyGoal
	}
	if patch.PointsPerBook != nil {
		s.PointsPerBook = patch.PointsPerBook
	}
	if patch.PointsPerSaga != nil {
		s.PointsPerSaga = patch.PointsPerSaga
	}
	if patch.PurchaseCost != nil {
		s.PurchaseCost = patch.PurchaseCost
	}
	if patch.PreferredCamera != nil {
		s.PreferredCamera = patch.PreferredCamera
	}
	return s
}

func (s Settings) PointsForBook() int {
	return intOr(s.PointsPerBook, DefaultPointsPerBook)
}

func (s Settings) PointsForSaga() int {
	return intOr(s.PointsPerSaga, DefaultPointsPerSaga)
}

// PurchasePrice is the number of points a purchase-with-points costs.
func (s Settings) PurchasePrice() int {
	return intOr(s.PurchaseCost, DefaultPurchaseCost)
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
