package coupon

import (
	"sync"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/token"
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Issuance policy
const (
	CodePrefix  = "LOVE"
	CodeLength  = 6
	MinDiscount = 10
	MaxDiscount = 30

	// maxDraws bounds how often a code seen by the filter is redrawn
	maxDraws = 5
)

// Issuer synthesizes coupons for verified gestures.
// It must only be called after a positive verification verdict.
type Issuer struct {
	mu    sync.Mutex
	src   token.Source
	seen  *bloom.BloomFilter
	newID func() string
}

// NewIssuer creates an issuer drawing from src. expectedCodes sizes the
// collision filter.
func NewIssuer(src token.Source, expectedCodes uint) *Issuer {
	if expectedCodes == 0 {
		expectedCodes = 10000
	}
	return &Issuer{
		src:   src,
		seen:  bloom.NewWithEstimates(expectedCodes, 0.001),
		newID: uuid.NewString,
	}
}

// Reserve records codes that already exist (for example catalog coupons)
// so freshly issued codes avoid them.
func (i *Issuer) Reserve(codes ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, code := range codes {
		i.seen.AddString(code)
	}
}

// Issue draws a discount in [MinDiscount, MaxDiscount] and a prefixed code
func (i *Issuer) Issue() models.Coupon {
	i.mu.Lock()
	defer i.mu.Unlock()

	discount := MinDiscount + i.src.IntN(MaxDiscount-MinDiscount+1)

	var code string
	for draw := 0; draw < maxDraws; draw++ {
		code = CodePrefix + token.Generate(i.src, CodeLength)
		if !i.seen.TestString(code) {
			break
		}
	}
	i.seen.AddString(code)

	return models.Coupon{
		ID:       i.newID(),
		Code:     code,
		Discount: decimal.NewFromInt(int64(discount)),
	}
}
