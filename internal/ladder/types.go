package ladder

// #region band

// Band is the coarse severity classification derived from the severity index.
type Band string

const (
	BandLow      Band = "low"
	BandMedium   Band = "medium"
	BandHigh     Band = "high"
	BandCritical Band = "critical"
)

// #endregion band
