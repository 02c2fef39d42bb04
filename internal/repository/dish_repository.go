package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrDishNotFound = errors.New("dish not found")
)

// DishRepository defines the interface for dish catalog access
type DishRepository interface {
	GetAll(ctx context.Context) ([]models.Dish, error)
	GetByID(ctx context.Context, id int64) (*models.Dish, error)
}

// InMemoryDishRepository implements DishRepository with in-memory storage
type InMemoryDishRepository struct {
	dishes map[int64]models.Dish
}

// NewInMemoryDishRepository creates a new in-memory dish repository with the seeded menu
func NewInMemoryDishRepository() *InMemoryDishRepository {
	return NewInMemoryDishRepositoryWith([]models.Dish{
		{ID: 1, Name: "Heart Shaped Omelette", Price: decimal.NewFromInt(28), Image: "/images/omelette.jpg", Category: "Breakfast"},
		{ID: 2, Name: "Strawberry Pancakes", Price: decimal.NewFromInt(32), Image: "/images/pancakes.jpg", Category: "Breakfast"},
		{ID: 3, Name: "Kung Pao Chicken", Price: decimal.NewFromInt(48), Image: "/images/kungpao.jpg", Category: "Main"},
		{ID: 4, Name: "Braised Pork Belly", Price: decimal.NewFromInt(58), Image: "/images/porkbelly.jpg", Category: "Main"},
		{ID: 5, Name: "Tomato Egg Noodles", Price: decimal.NewFromInt(22), Image: "/images/noodles.jpg", Category: "Main"},
		{ID: 6, Name: "Steamed Sea Bass", Price: decimal.NewFromInt(88), Image: "/images/seabass.jpg", Category: "Main"},
		{ID: 7, Name: "Mango Pudding", Price: decimal.NewFromInt(18), Image: "/images/pudding.jpg", Category: "Dessert"},
		{ID: 8, Name: "Red Bean Soup", Price: decimal.NewFromInt(15), Image: "/images/redbean.jpg", Category: "Dessert"},
		{ID: 9, Name: "Bubble Milk Tea", Price: decimal.NewFromInt(16), Image: "/images/milktea.jpg", Category: "Drink"},
		{ID: 10, Name: "Rose Lychee Tea", Price: decimal.RequireFromString("19.5"), Image: "/images/lychee.jpg", Category: "Drink"},
	})
}

// NewInMemoryDishRepositoryWith creates a repository holding the given dishes
func NewInMemoryDishRepositoryWith(dishes []models.Dish) *InMemoryDishRepository {
	byID := make(map[int64]models.Dish, len(dishes))
	for _, d := range dishes {
		byID[d.ID] = d
	}
	return &InMemoryDishRepository{dishes: byID}
}

// GetAll returns all dishes ordered by id
func (r *InMemoryDishRepository) GetAll(ctx context.Context) ([]models.Dish, error) {
	dishes := make([]models.Dish, 0, len(r.dishes))
	for _, dish := range r.dishes {
		dishes = append(dishes, dish)
	}
	sort.Slice(dishes, func(i, j int) bool { return dishes[i].ID < dishes[j].ID })
	return dishes, nil
}

// GetByID returns a dish by its ID
func (r *InMemoryDishRepository) GetByID(ctx context.Context, id int64) (*models.Dish, error) {
	dish, exists := r.dishes[id]
	if !exists {
		return nil, ErrDishNotFound
	}
	return &dish, nil
}
