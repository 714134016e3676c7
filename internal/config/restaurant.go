package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"aura/internal/models"
)

// ScheduleConfig is the weekly template applied when the store has none.
type ScheduleConfig struct {
	OpenTime     string   `yaml:"open_time"`   // "12:00"
	CloseTime    string   `yaml:"close_time"`  // "22:00"
	ClosedDays   []string `yaml:"closed_days"` // weekday names
	Slots        []string `yaml:"slots"`       // explicit slot times; hourly when empty
	FirstSlot    string   `yaml:"first_slot"`
	LastSlot     string   `yaml:"last_slot"`
	SlotCapacity int      `yaml:"slot_capacity"`
}

// ClosureConfig is an explicit closed date.
type ClosureConfig struct {
	Date   string `yaml:"date"`   // "2026-12-31"
	Reason string `yaml:"reason"`
}

// HolidaysConfig selects generated public holidays plus explicit closures.
type HolidaysConfig struct {
	Country string          `yaml:"country"` // "HR"
	Years   []int           `yaml:"years"`
	Extra   []ClosureConfig `yaml:"extra"`
}

// MenuItemConfig is one menu entry; price is in euros.
type MenuItemConfig struct {
	Name            string  `yaml:"name"`
	Description     string  `yaml:"description"`
	Price           float64 `yaml:"price"`
	DiscountPercent int     `yaml:"discount_percent"`
	Category        string  `yaml:"category"`
	ImageURL        string  `yaml:"image_url"`
	Available       *bool   `yaml:"available,omitempty"`
	Vegetarian      bool    `yaml:"vegetarian"`
	Vegan           bool    `yaml:"vegan"`
	GlutenFree      bool    `yaml:"gluten_free"`
	Allergens       string  `yaml:"allergens"`
	SortOrder       int     `yaml:"sort_order"`
}

// RestaurantConfig is the root of restaurant.yaml.
type RestaurantConfig struct {
	Schedule ScheduleConfig   `yaml:"schedule"`
	Holidays HolidaysConfig   `yaml:"holidays"`
	Menu     []MenuItemConfig `yaml:"menu"`
}

// LoadRestaurantConfig loads and validates restaurant.yaml.
func LoadRestaurantConfig(path string) (*RestaurantConfig, error) {
	if path == "" {
		path = "configs/restaurant.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read restaurant config: %w", err)
	}
	return ParseRestaurantConfig(data)
}

// ParseRestaurantConfig decodes, defaults and validates raw YAML.
func ParseRestaurantConfig(data []byte) (*RestaurantConfig, error) {
	var cfg RestaurantConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse restaurant config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate restaurant config: %w", err)
	}
	return &cfg, nil
}

// DefaultRestaurantConfig is used when restaurant.yaml is absent.
func DefaultRestaurantConfig() *RestaurantConfig {
	cfg := &RestaurantConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *RestaurantConfig) applyDefaults() {
	if c.Schedule.OpenTime == "" {
		c.Schedule.OpenTime = "12:00"
	}
	if c.Schedule.CloseTime == "" {
		c.Schedule.CloseTime = "22:00"
	}
	if c.Schedule.FirstSlot == "" {
		c.Schedule.FirstSlot = "12:00"
	}
	if c.Schedule.LastSlot == "" {
		c.Schedule.LastSlot = "23:00"
	}
	if c.Schedule.SlotCapacity <= 0 {
		c.Schedule.SlotCapacity = 1
	}
	c.Holidays.Country = strings.ToUpper(strings.TrimSpace(c.Holidays.Country))
}

// Validate checks the configuration for errors.
func (c *RestaurantConfig) Validate() error {
	open, err := models.ParseClockTime(c.Schedule.OpenTime)
	if err != nil {
		return fmt.Errorf("schedule.open_time: %w", err)
	}
	closing, err := models.ParseClockTime(c.Schedule.CloseTime)
	if err != nil {
		return fmt.Errorf("schedule.close_time: %w", err)
	}
	if closing <= open {
		return fmt.Errorf("schedule: close_time must be after open_time")
	}
	for i, d := range c.Schedule.ClosedDays {
		if _, err := models.ParseWeekday(d); err != nil {
			return fmt.Errorf("schedule.closed_days[%d]: %w", i, err)
		}
	}
	if _, err := c.SlotTimes(); err != nil {
		return err
	}

	if c.Holidays.Country != "" && c.Holidays.Country != "HR" {
		return fmt.Errorf("holidays.country: unsupported %q", c.Holidays.Country)
	}
	for i, h := range c.Holidays.Extra {
		if _, err := models.ParseDate(h.Date); err != nil {
			return fmt.Errorf("holidays.extra[%d]: %w", i, err)
		}
	}

	names := make(map[string]bool)
	for i, m := range c.Menu {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("menu[%d]: name is required", i)
		}
		key := strings.ToLower(m.Name)
		if names[key] {
			return fmt.Errorf("menu[%d]: duplicate name '%s'", i, m.Name)
		}
		names[key] = true
		if m.Price < 0 {
			return fmt.Errorf("menu[%d]: price cannot be negative", i)
		}
		if m.DiscountPercent < 0 || m.DiscountPercent > 100 {
			return fmt.Errorf("menu[%d]: discount_percent must be 0-100", i)
		}
		if _, err := models.ParseMenuCategory(m.Category); err != nil {
			return fmt.Errorf("menu[%d]: %w", i, err)
		}
	}
	return nil
}

// SlotTimes returns the configured slots, or hourly slots from first_slot to
// last_slot inclusive.
func (c *RestaurantConfig) SlotTimes() ([]models.ClockTime, error) {
	if len(c.Schedule.Slots) > 0 {
		out := make([]models.ClockTime, 0, len(c.Schedule.Slots))
		for i, s := range c.Schedule.Slots {
			t, err := models.ParseClockTime(s)
			if err != nil {
				return nil, fmt.Errorf("schedule.slots[%d]: %w", i, err)
			}
			out = append(out, t)
		}
		return out, nil
	}

	first, err := models.ParseClockTime(c.Schedule.FirstSlot)
	if err != nil {
		return nil, fmt.Errorf("schedule.first_slot: %w", err)
	}
	last, err := models.ParseClockTime(c.Schedule.LastSlot)
	if err != nil {
		return nil, fmt.Errorf("schedule.last_slot: %w", err)
	}
	from, _ := first.Hour()
	to, _ := last.Hour()
	if to < from {
		return nil, fmt.Errorf("schedule: last_slot must not be before first_slot")
	}
	out := make([]models.ClockTime, 0, to-from+1)
	for h := from; h <= to; h++ {
		out = append(out, models.ClockTime(fmt.Sprintf("%02d:00", h)))
	}
	return out, nil
}

// IsClosedDay reports whether w is listed in closed_days.
func (c *RestaurantConfig) IsClosedDay(w models.Weekday) bool {
	for _, d := range c.Schedule.ClosedDays {
		if parsed, err := models.ParseWeekday(d); err == nil && parsed == w {
			return true
		}
	}
	return false
}

// MenuItems converts the menu section into store records.
func (c *RestaurantConfig) MenuItems() []models.MenuItem {
	items := make([]models.MenuItem, 0, len(c.Menu))
	for _, m := range c.Menu {
		category, _ := models.ParseMenuCategory(m.Category)
		available := true
		if m.Available != nil {
			available = *m.Available
		}
		items = append(items, models.MenuItem{
			Name:            strings.TrimSpace(m.Name),
			Description:     m.Description,
			Price:           models.Cents(math.Round(m.Price * 100)),
			DiscountPercent: m.DiscountPercent,
			Category:        category,
			ImageURL:        m.ImageURL,
			IsAvailable:     available,
			IsVegetarian:    m.Vegetarian,
			IsVegan:         m.Vegan,
			IsGlutenFree:    m.GlutenFree,
			Allergens:       m.Allergens,
			SortOrder:       m.SortOrder,
		})
	}
	return items
}
