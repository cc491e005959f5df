package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ItemCategory string

const (
	ItemCategoryTextbooks      ItemCategory = "textbooks"
	ItemCategoryElectronics    ItemCategory = "electronics"
	ItemCategoryDormEssentials ItemCategory = "dorm-essentials"
	ItemCategoryEmergencyKits  ItemCategory = "emergency-kits"
	ItemCategoryClothing       ItemCategory = "clothing"
	ItemCategoryBikesScooters  ItemCategory = "bikes-scooters"
	ItemCategoryOther          ItemCategory = "other"
)

type ItemPriceType string

const (
	ItemPriceTypePerDay      ItemPriceType = "per_day"
	ItemPriceTypePerWeek     ItemPriceType = "per_week"
	ItemPriceTypePerSemester ItemPriceType = "per_semester"
)

// MaxItemPriceCents caps a listing price at $1,000,000.
const MaxItemPriceCents int64 = 100_000_000

func (c ItemCategory) IsValid() bool {
	switch c {
	case ItemCategoryTextbooks, ItemCategoryElectronics, ItemCategoryDormEssentials,
		ItemCategoryEmergencyKits, ItemCategoryClothing, ItemCategoryBikesScooters, ItemCategoryOther:
		return true
	}
	return false
}

func (p ItemPriceType) IsValid() bool {
	switch p {
	case ItemPriceTypePerDay, ItemPriceTypePerWeek, ItemPriceTypePerSemester:
		return true
	}
	return false
}

// Item is a listing owned by a user. Rentals reference items but never change
// them; in particular IsAvailable is not touched by any rental transition.
type Item struct {
	ID          uuid.UUID     `json:"id"`
	OwnerID     uuid.UUID     `json:"owner_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    ItemCategory  `json:"category"`
	CourseCode  string        `json:"course_code,omitempty"`
	Condition   string        `json:"condition"`
	PriceCents  int64         `json:"price_cents"`
	PriceType   ItemPriceType `json:"price_type"`
	IsAvailable bool          `json:"is_available"`
	CreatedOn   time.Time     `json:"created_on"`
}

// Normalize trims text fields and fills defaults for a new listing.
func (i *Item) Normalize() {
	i.Title = strings.TrimSpace(i.Title)
	i.CourseCode = strings.TrimSpace(i.CourseCode)
	if i.PriceType == "" {
		i.PriceType = ItemPriceTypePerWeek
	}
}

func (i *Item) Validate() error {
	if i.Title == "" {
		return InvalidInput("title is required")
	}
	if !i.Category.IsValid() {
		return InvalidInput("unknown category %q", i.Category)
	}
	if !i.PriceType.IsValid() {
		return InvalidInput("unknown price type %q", i.PriceType)
	}
	if i.PriceCents < 0 {
		return InvalidInput("price must not be negative")
	}
	if i.PriceCents > MaxItemPriceCents {
		return InvalidInput("price must not exceed %d cents", MaxItemPriceCents)
	}
	return nil
}
