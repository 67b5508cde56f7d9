package types

import (
	"time"

	"github.com/google/uuid"
)

type PartnerCategory string

const (
	PartnerTourism     PartnerCategory = "tourism_office"
	PartnerHospitality PartnerCategory = "hospitality"
	PartnerGastronomy  PartnerCategory = "gastronomy"
	PartnerCommerce    PartnerCategory = "commerce"
	PartnerTransportP  PartnerCategory = "transport"
	PartnerCulture     PartnerCategory = "culture"
	PartnerSports      PartnerCategory = "sports"
	PartnerMedia       PartnerCategory = "media"
	PartnerInstitution PartnerCategory = "institution"
)

var PartnerCategories = []PartnerCategory{
	PartnerTourism, PartnerHospitality, PartnerGastronomy, PartnerCommerce,
	PartnerTransportP, PartnerCulture, PartnerSports, PartnerMedia, PartnerInstitution,
}

func ValidPartnerCategory(c PartnerCategory) bool {
	for _, v := range PartnerCategories {
		if v == c {
			return true
		}
	}
	return false
}

type Partner struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Category     PartnerCategory `json:"category"`
	Description  string          `json:"description,omitempty"`
	LogoURL      string          `json:"logo_url,omitempty"`
	Website      string          `json:"website,omitempty"`
	ContactEmail string          `json:"contact_email,omitempty"`
	ContactPhone string          `json:"contact_phone,omitempty"`
	Address      string          `json:"address,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Sponsored    bool            `json:"sponsored"`
	Featured     bool            `json:"featured"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type PartnerFilter struct {
	Name     string
	Category PartnerCategory
	Location string
	Tags     []string
	Featured bool
	Limit    int
	Offset   int
}

type CreatePartnerParams struct {
	Name         string          `json:"name" validate:"required"`
	Category     PartnerCategory `json:"category" validate:"required"`
	Description  string          `json:"description"`
	LogoURL      string          `json:"logo_url"`
	Website      string          `json:"website" validate:"omitempty,url"`
	ContactEmail string          `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string          `json:"contact_phone"`
	Address      string          `json:"address"`
	Tags         []string        `json:"tags"`
	Sponsored    bool            `json:"sponsored"`
	Featured     bool            `json:"featured"`
}

type UpdatePartnerParams struct {
	Name         *string          `json:"name,omitempty"`
	Category     *PartnerCategory `json:"category,omitempty"`
	Description  *string          `json:"description,omitempty"`
	LogoURL      *string          `json:"logo_url,omitempty"`
	Website      *string          `json:"website,omitempty"`
	ContactEmail *string          `json:"contact_email,omitempty"`
	ContactPhone *string          `json:"contact_phone,omitempty"`
	Address      *string          `json:"address,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
	Sponsored    *bool            `json:"sponsored,omitempty"`
	Featured     *bool            `json:"featured,omitempty"`
}
