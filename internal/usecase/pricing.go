package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	domainErrors "github.com/lunchpad/orderengine/internal/domain/errors"
	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/domain/repository"
)

// Pricer computes the total of one ordered product line.
type Pricer struct{}

// NewPricer constructs Pricer.
func NewPricer() *Pricer {
	return &Pricer{}
}

// PriceLine reserves stock and prices a line:
// unit price x quantity + sum(addon price+tax) + sum(selected option price).
// Validation is fail-fast in a fixed order: stock, add-ons, variations with
// their option counts and options, then the required-variation check.
func (p *Pricer) PriceLine(ctx context.Context, scope repository.CompositionScope, product *model.Product, sel model.LineSelection) (*model.OrderLine, error) {
	if err := scope.ReserveStock(ctx, product, sel.Quantity); err != nil {
		return nil, err
	}

	line := &model.OrderLine{ProductID: product.ID, Quantity: sel.Quantity}
	total := product.Price.Mul(decimal.NewFromInt(int64(sel.Quantity)))

	for _, addonID := range sel.AddonIDs {
		addon, err := scope.Addon(ctx, addonID, product.ID)
		if err != nil {
			return nil, err
		}
		total = total.Add(addon.Price.Add(addon.Tax))
		line.AddonIDs = append(line.AddonIDs, addon.ID)
	}

	satisfied := make(map[int64]struct{}, len(sel.Variations))
	for _, vs := range sel.Variations {
		variation, err := scope.Variation(ctx, vs.VariationID, product.ID)
		if err != nil {
			return nil, err
		}
		satisfied[variation.ID] = struct{}{}
		line.VariationIDs = append(line.VariationIDs, variation.ID)

		if len(vs.OptionIDs) < variation.MinSelections || len(vs.OptionIDs) > variation.MaxSelections {
			return nil, fmt.Errorf("variation %q: %w", variation.Title, domainErrors.ErrInvalidOptionCount)
		}
		for _, optionID := range vs.OptionIDs {
			option, err := scope.Option(ctx, optionID, variation.ID)
			if err != nil {
				return nil, err
			}
			total = total.Add(option.Price)
		}
	}

	required, err := scope.RequiredVariations(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	for _, v := range required {
		if _, ok := satisfied[v.ID]; !ok {
			return nil, fmt.Errorf("variation %q: %w", v.Title, domainErrors.ErrRequiredVariation)
		}
	}

	line.TotalPrice = total
	return line, nil
}
