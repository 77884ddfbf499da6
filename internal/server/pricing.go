package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/subforge/renewals/internal/pricing"
)

type quoteLineBody struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	SignupFee int64  `json:"signup_fee,omitempty"`
	TaxExempt bool   `json:"tax_exempt,omitempty"`
}

type quoteBody struct {
	Lines         []quoteLineBody `json:"lines"`
	DiscountCodes []string        `json:"discount_codes,omitempty"`
}

// QuotePricing prices a prospective subscription: per-line initial and
// recurring amounts after discounts and tax, without persisting anything.
func (s *Server) QuotePricing(c *gin.Context) {
	var body quoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(body.Lines) == 0 {
		AbortWithError(c, newValidationError("lines", "invalid_lines", "at least one line is required"))
		return
	}

	lines := make([]pricing.Line, 0, len(body.Lines))
	for _, line := range body.Lines {
		productID, err := snowflake.ParseString(strings.TrimSpace(line.ProductID))
		if err != nil || productID == 0 {
			AbortWithError(c, newValidationError("product_id", "invalid_product_id", "invalid product id"))
			return
		}
		if line.UnitPrice < 0 || line.SignupFee < 0 {
			AbortWithError(c, newValidationError("unit_price", "invalid_amount", "amounts must not be negative"))
			return
		}
		lines = append(lines, pricing.Line{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			SignupFee: line.SignupFee,
			TaxExempt: line.TaxExempt,
		})
	}

	result, err := s.pricingSvc.Compute(c.Request.Context(), lines, body.DiscountCodes)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
