package database

import (
	"fmt"

	"gorm.io/gorm"
)

type seedCategory struct {
	code        string
	name        string
	multiSelect bool
	options     []seedOption
}

type seedOption struct {
	code string
	name string
}

// defaultTaxonomy is the habitability issue catalog the intake form ships
// with. Production deployments manage the catalog out-of-band; the seed
// only fills an empty database.
var defaultTaxonomy = []seedCategory{
	{
		code: "pest_infestation", name: "Pest Infestation", multiSelect: true,
		options: []seedOption{
			{"cockroaches", "Cockroaches"},
			{"mice", "Mice"},
			{"rats", "Rats"},
			{"bed_bugs", "Bed Bugs"},
			{"ants", "Ants"},
		},
	},
	{
		code: "mold_mildew", name: "Mold & Mildew", multiSelect: true,
		options: []seedOption{
			{"bathroom_mold", "Bathroom Mold"},
			{"bedroom_mold", "Bedroom Mold"},
			{"kitchen_mold", "Kitchen Mold"},
			{"water_damage", "Water Damage"},
		},
	},
	{
		code: "plumbing", name: "Plumbing", multiSelect: true,
		options: []seedOption{
			{"leaking_pipes", "Leaking Pipes"},
			{"clogged_drains", "Clogged Drains"},
			{"no_running_water", "No Running Water"},
			{"sewage_backup", "Sewage Backup"},
		},
	},
	{
		code: "heating_hot_water", name: "Heating & Hot Water", multiSelect: true,
		options: []seedOption{
			{"no_heat", "No Heat"},
			{"no_hot_water", "No Hot Water"},
			{"broken_radiator", "Broken Radiator"},
		},
	},
	{
		code: "electrical", name: "Electrical", multiSelect: true,
		options: []seedOption{
			{"exposed_wiring", "Exposed Wiring"},
			{"broken_outlets", "Broken Outlets"},
			{"frequent_outages", "Frequent Outages"},
		},
	},
	{
		code: "structural", name: "Structural", multiSelect: true,
		options: []seedOption{
			{"broken_windows", "Broken Windows"},
			{"ceiling_damage", "Ceiling Damage"},
			{"floor_damage", "Floor Damage"},
			{"broken_stairs", "Broken Stairs"},
		},
	},
	{
		code: "security", name: "Security", multiSelect: true,
		options: []seedOption{
			{"broken_locks", "Broken Locks"},
			{"broken_entry_door", "Broken Entry Door"},
			{"no_smoke_detector", "No Smoke Detector"},
		},
	},
}

// SeedTaxonomy inserts the default issue catalog if the store is empty.
// Safe to call on every startup.
func SeedTaxonomy(db *gorm.DB) error {
	var count int64
	if err := db.Model(&IssueCategory{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count issue categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i, sc := range defaultTaxonomy {
			category := IssueCategory{
				Code:         sc.code,
				Name:         sc.name,
				DisplayOrder: i + 1,
				MultiSelect:  sc.multiSelect,
			}
			if err := tx.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to seed category %s: %w", sc.code, err)
			}

			for j, so := range sc.options {
				option := IssueOption{
					CategoryID:   category.ID,
					Code:         so.code,
					Name:         so.name,
					DisplayOrder: j + 1,
				}
				if err := tx.Create(&option).Error; err != nil {
					return fmt.Errorf("failed to seed option %s/%s: %w", sc.code, so.code, err)
				}
			}
		}
		return nil
	})
}
