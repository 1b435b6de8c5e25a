package dto

import (
	"net/http"
	"testing"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
)

func TestReceiveBatchRequest_MalformedQuantity(t *testing.T) {
	req := ReceiveBatchRequest{
		IngredientID: id.New().String(),
		Quantity:     "ten",
	}

	_, err := req.ToRequest(id.New())
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperror.CodeInvalidQuantity {
		t.Errorf("code: want %s, got %s", apperror.CodeInvalidQuantity, appErr.Code)
	}
	if got := apperror.GetHTTPStatus(err); got != http.StatusBadRequest {
		t.Errorf("malformed quantity must map to 400, got %d", got)
	}
}

func TestCreateRecipeRequest_MalformedLines(t *testing.T) {
	tests := []struct {
		name string
		req  CreateRecipeRequest
	}{
		{
			name: "bad ingredient quantity",
			req: CreateRecipeRequest{
				Name: "Stock", Type: "preparation", Servings: 1,
				Ingredients: []RecipeIngredientLine{
					{IngredientID: id.New().String(), Quantity: "1.2.3", Unit: "kg"},
				},
			},
		},
		{
			name: "bad component fraction",
			req: CreateRecipeRequest{
				Name: "Soup", Type: "final", Servings: 2,
				Components: []RecipeComponentLine{
					{ComponentID: id.New().String(), Fraction: "half"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToEntity(id.New())
			appErr, ok := apperror.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != apperror.CodeInvalidQuantity {
				t.Errorf("code: want %s, got %s", apperror.CodeInvalidQuantity, appErr.Code)
			}
			if got := apperror.GetHTTPStatus(err); got != http.StatusBadRequest {
				t.Errorf("malformed line must map to 400, got %d", got)
			}
		})
	}
}
