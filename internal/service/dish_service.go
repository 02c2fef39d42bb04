package service

import (
	"context"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/repository"
)

// DishService handles business logic for the dish catalog
type DishService struct {
	repo repository.DishRepository
}

// NewDishService creates a new dish service
func NewDishService(repo repository.DishRepository) *DishService {
	return &DishService{
		repo: repo,
	}
}

// ListDishes returns all available dishes
func (s *DishService) ListDishes(ctx context.Context) ([]models.Dish, error) {
	return s.repo.GetAll(ctx)
}

// GetDish returns a dish by ID
func (s *DishService) GetDish(ctx context.Context, id int64) (*models.Dish, error) {
	return s.repo.GetByID(ctx, id)
}
