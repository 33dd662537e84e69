package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/adrijusxx/truckpay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoadSplitService divides one in-progress load into two accounting segments
// on a driver/truck handoff. Segment A keeps the original assignment with
// miles-ratio prorated pay and revenue; segment B takes the complement by
// subtraction, so the two segments always sum back to the original totals
// exactly, rounding included.
type LoadSplitService struct {
	DB *gorm.DB
}

func NewLoadSplitService(db *gorm.DB) *LoadSplitService { return &LoadSplitService{DB: db} }

type SplitInput struct {
	NewDriverID   *uint
	NewTruckID    *uint
	SplitLocation string
	SplitDate     time.Time
	SplitMiles    decimal.Decimal
	Notes         string
	RequestID     string
}

// SplitResult flags zero-distance splits (0 or full miles) so review tooling
// can confirm the administrative reassignment was intended.
type SplitResult struct {
	SegmentA     *models.LoadSegment
	SegmentB     *models.LoadSegment
	ZeroDistance bool
}

// Split performs the handoff. At least one of NewDriverID/NewTruckID is
// required and splitMiles must lie within [0, totalMiles]; both bounds are
// themselves legal splits. A load already split is a conflict — its
// accounting lives on the segments now.
func (s *LoadSplitService) Split(loadID uint, in SplitInput) (*SplitResult, error) {
	if in.NewDriverID == nil && in.NewTruckID == nil {
		return nil, fmt.Errorf("%w: a split needs a new driver or a new truck", ErrValidation)
	}
	result := &SplitResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var load models.Load
		if err := tx.First(&load, loadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: load %d", ErrNotFound, loadID)
			}
			return err
		}
		if load.Split {
			return fmt.Errorf("%w: load %s is already split", ErrConflict, load.LoadNumber)
		}
		if in.SplitMiles.IsNegative() || in.SplitMiles.GreaterThan(load.TotalMiles) {
			return fmt.Errorf("%w: split miles %s outside [0, %s]",
				ErrValidation, in.SplitMiles, load.TotalMiles)
		}

		// Ratio-prorate segment A, give segment B the remainder by
		// subtraction. Multiplying both sides independently would let
		// rounding leak cents.
		payA := decimal.Zero
		revenueA := decimal.Zero
		if load.TotalMiles.IsPositive() {
			ratio := in.SplitMiles.Div(load.TotalMiles)
			payA = load.DriverPay.Mul(ratio).RoundBank(2)
			revenueA = load.Revenue.Mul(ratio).RoundBank(2)
		}
		payB := load.DriverPay.Sub(payA)
		revenueB := load.Revenue.Sub(revenueA)
		milesB := load.TotalMiles.Sub(in.SplitMiles)
		zero := in.SplitMiles.IsZero() || milesB.IsZero()

		newDriverID := load.DriverID
		if in.NewDriverID != nil {
			newDriverID = *in.NewDriverID
		}
		newTruckID := load.TruckID
		if in.NewTruckID != nil {
			newTruckID = *in.NewTruckID
		}

		splitDate := in.SplitDate
		segA := models.LoadSegment{
			LoadID:       load.ID,
			DriverID:     load.DriverID,
			TruckID:      load.TruckID,
			Sequence:     1,
			EndLocation:  in.SplitLocation,
			Miles:        in.SplitMiles,
			Revenue:      revenueA,
			DriverPay:    payA,
			ZeroDistance: zero,
			CompletedAt:  &splitDate,
			Notes:        in.Notes,
		}
		segB := models.LoadSegment{
			LoadID:        load.ID,
			DriverID:      newDriverID,
			TruckID:       newTruckID,
			Sequence:      2,
			StartLocation: in.SplitLocation,
			Miles:         milesB,
			Revenue:       revenueB,
			DriverPay:     payB,
			ZeroDistance:  zero,
			Notes:         in.Notes,
		}
		if err := tx.Create(&segA).Error; err != nil {
			return err
		}
		if err := tx.Create(&segB).Error; err != nil {
			return err
		}
		if err := tx.Model(&load).Updates(map[string]any{
			"split":     true,
			"driver_id": newDriverID,
			"truck_id":  newTruckID,
		}).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.ActivityLog{
			CompanyID:   load.CompanyID,
			RequestID:   in.RequestID,
			Action:      models.ActionLoadSplit,
			EntityType:  "Load",
			EntityID:    load.ID,
			Description: fmt.Sprintf("Load %s split at %s mi of %s", load.LoadNumber, in.SplitMiles, load.TotalMiles),
		}).Error; err != nil {
			return err
		}
		result.SegmentA = &segA
		result.SegmentB = &segB
		result.ZeroDistance = zero
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DriverMiles aggregates a driver's mileage for a period across unsplit loads
// and handoff segments, the same set settlement generation consumes.
type DriverMiles struct {
	TotalMiles   decimal.Decimal
	LoadedMiles  decimal.Decimal
	SegmentCount int
	LoadCount    int
}

func (s *LoadSplitService) DriverMilesForPeriod(driverID uint, start, end time.Time) (*DriverMiles, error) {
	var loads []models.Load
	if err := s.DB.Where("driver_id = ? AND split = ? AND completed_at >= ? AND completed_at < ?",
		driverID, false, start, end).Find(&loads).Error; err != nil {
		return nil, err
	}
	var segments []models.LoadSegment
	if err := s.DB.Where("driver_id = ? AND completed_at >= ? AND completed_at < ?",
		driverID, start, end).Find(&segments).Error; err != nil {
		return nil, err
	}
	out := &DriverMiles{LoadCount: len(loads), SegmentCount: len(segments)}
	out.TotalMiles = decimal.Zero
	out.LoadedMiles = decimal.Zero
	for _, l := range loads {
		out.TotalMiles = out.TotalMiles.Add(l.TotalMiles)
		out.LoadedMiles = out.LoadedMiles.Add(l.LoadedMiles)
	}
	for _, seg := range segments {
		out.TotalMiles = out.TotalMiles.Add(seg.Miles)
		out.LoadedMiles = out.LoadedMiles.Add(seg.Miles)
	}
	return out, nil
}
