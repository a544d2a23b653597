package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
)

// AddressService is the address directory. It owns the billing uniqueness
// and default-shipping rules.
type AddressService struct {
	db *gorm.DB
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// AddressInput is a create or full-update payload.
type AddressInput struct {
	Tag       string `json:"tag"`
	Name      string `json:"name"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	IsDefault bool   `json:"isDefault"`
}

func (in AddressInput) toModel(userID uuid.UUID) models.Address {
	country := strings.TrimSpace(in.Country)
	if country == "" {
		country = "India"
	}
	tag := strings.ToLower(strings.TrimSpace(in.Tag))
	if tag == "" {
		tag = models.AddressTagShipping
	}
	return models.Address{
		UserID:    userID,
		Tag:       tag,
		Name:      strings.TrimSpace(in.Name),
		Street:    strings.TrimSpace(in.Street),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		ZipCode:   strings.TrimSpace(in.ZipCode),
		Country:   country,
		IsDefault: in.IsDefault,
	}
}

func validateAddress(a *models.Address) error {
	if a.Tag != models.AddressTagBilling && a.Tag != models.AddressTagShipping {
		return ErrInvalidAddressTag
	}
	for _, v := range []string{a.Name, a.Street, a.City, a.State, a.ZipCode} {
		if v == "" {
			return ErrAddressIncomplete
		}
	}
	return nil
}

// applyAddressRules checks a (new or edited) address against the user's
// other addresses. It forces billing addresses to be default and makes the
// first shipping address default. It reports whether the other shipping
// addresses must lose their default flag.
func applyAddressRules(others []models.Address, a *models.Address) (unsetOtherDefaults bool, err error) {
	if err := validateAddress(a); err != nil {
		return false, err
	}

	if a.Tag == models.AddressTagBilling {
		for _, o := range others {
			if o.Tag == models.AddressTagBilling && o.ID != a.ID {
				return false, ErrBillingAddressExists
			}
		}
		a.IsDefault = true
		return false, nil
	}

	hasShipping := false
	for _, o := range others {
		if o.Tag == models.AddressTagShipping && o.ID != a.ID {
			hasShipping = true
			break
		}
	}
	if !hasShipping {
		a.IsDefault = true
	}
	return a.IsDefault && hasShipping, nil
}

// List returns the user's addresses, billing first, then defaults.
func (s *AddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("CASE WHEN tag = 'billing' THEN 0 ELSE 1 END").
		Order("is_default DESC").
		Order("created_at ASC").
		Find(&addresses).Error
	return addresses, err
}

// Create adds an address and returns the refreshed list.
func (s *AddressService) Create(ctx context.Context, userID uuid.UUID, in AddressInput) ([]models.Address, error) {
	address := in.toModel(userID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var others []models.Address
		if err := tx.Where("user_id = ?", userID).Find(&others).Error; err != nil {
			return err
		}
		unset, err := applyAddressRules(others, &address)
		if err != nil {
			return err
		}
		if unset {
			if err := s.clearShippingDefaults(tx, userID); err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return nil, err
	}
	return s.List(ctx, userID)
}

// Update replaces an address and returns the refreshed list. Taking the
// default flag off the default shipping address hands it to the oldest
// other shipping address.
func (s *AddressService) Update(ctx context.Context, userID, id uuid.UUID, in AddressInput) ([]models.Address, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Address
		if err := tx.First(&current, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("address: %w", ErrNotFound)
			}
			return err
		}

		updated := in.toModel(userID)
		updated.BaseModel = current.BaseModel

		var others []models.Address
		if err := tx.Where("user_id = ? AND id <> ?", userID, id).Find(&others).Error; err != nil {
			return err
		}
		unset, err := applyAddressRules(others, &updated)
		if err != nil {
			return err
		}
		if unset {
			if err := s.clearShippingDefaults(tx, userID); err != nil {
				return err
			}
		}
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		if lostShippingDefault(current, updated) {
			return s.promoteShippingDefault(tx, userID, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.List(ctx, userID)
}

// Delete removes an address. When the default shipping address goes, the
// oldest remaining shipping address becomes default.
func (s *AddressService) Delete(ctx context.Context, userID, id uuid.UUID) ([]models.Address, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Address
		if err := tx.First(&current, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("address: %w", ErrNotFound)
			}
			return err
		}
		if err := tx.Delete(&current).Error; err != nil {
			return err
		}
		if current.Tag != models.AddressTagShipping || !current.IsDefault {
			return nil
		}
		return s.promoteShippingDefault(tx, userID, id)
	})
	if err != nil {
		return nil, err
	}
	return s.List(ctx, userID)
}

// lostShippingDefault reports whether an edit takes the default shipping
// role away from an address.
func lostShippingDefault(before, after models.Address) bool {
	if before.Tag != models.AddressTagShipping || !before.IsDefault {
		return false
	}
	return after.Tag != models.AddressTagShipping || !after.IsDefault
}

// promoteShippingDefault makes the oldest shipping address other than
// except the default one. Having none left is fine.
func (s *AddressService) promoteShippingDefault(tx *gorm.DB, userID, except uuid.UUID) error {
	var next models.Address
	err := tx.Where("user_id = ? AND tag = ? AND id <> ?", userID, models.AddressTagShipping, except).
		Order("created_at ASC").First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Model(&next).Update("is_default", true).Error
}

func (s *AddressService) clearShippingDefaults(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND tag = ? AND is_default = ?", userID, models.AddressTagShipping, true).
		Update("is_default", false).Error
}
