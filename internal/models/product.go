package models

import (
	"encoding/json"
	"strings"
)

// Gender values used by the catalog.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderUnisex = "unisex"
)

// StringList decodes from either a JSON array or a comma separated string,
// the latter being how the admin form submits sizes.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	out := StringList{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}

// Product is a transient copy of a catalog entry. Two field schemes exist in
// the data: name/images (current) and title/image (legacy). Decoding fills
// the current fields from the legacy ones when they are missing.
type Product struct {
	ID          ID         `json:"id"`
	Name        string     `json:"name,omitempty" validate:"required,min=2,max=200"`
	Images      []string   `json:"images,omitempty" validate:"required,min=1,dive,required"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    string     `json:"category,omitempty" validate:"required"`
	Color       string     `json:"color,omitempty"`
	Gender      string     `json:"gender,omitempty" validate:"omitempty,oneof=male female unisex"`
	Price       float64    `json:"price" validate:"gte=0"`
	Discount    *float64   `json:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	Offer       string     `json:"offer,omitempty"`
	Rating      *float64   `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Sizes       StringList `json:"sizes,omitempty"`
	Brand       string     `json:"brand,omitempty"`
	Material    string     `json:"material,omitempty"`
	Fit         string     `json:"fit,omitempty"`
	Pattern     string     `json:"pattern,omitempty"`
	Sleeve      string     `json:"sleeve,omitempty"`

	// Legacy scheme, kept so records round-trip unchanged.
	Title  string `json:"title,omitempty"`
	Image  string `json:"image,omitempty"`
	Fabric string `json:"fabric,omitempty"`
}

type productAlias Product

// UnmarshalJSON decodes either field scheme and normalizes to the current one.
func (p *Product) UnmarshalJSON(data []byte) error {
	var a productAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Product(a)
	p.Normalize()
	return nil
}

// Normalize fills name, images and material from their legacy counterparts.
func (p *Product) Normalize() {
	if p.Name == "" {
		p.Name = p.Title
	}
	if len(p.Images) == 0 && p.Image != "" {
		p.Images = []string{p.Image}
	}
	if p.Material == "" {
		p.Material = p.Fabric
	}
}

// DisplayName prefers the current name and falls back to the legacy title.
func (p Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Title
}

// PrimaryImage returns the first non-empty image, checking images before image.
func (p Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img != "" {
			return img
		}
	}
	return p.Image
}

// DiscountedPrice applies the optional discount percent to the price.
func (p Product) DiscountedPrice() float64 {
	if p.Discount == nil || *p.Discount <= 0 {
		return p.Price
	}
	return p.Price * (100 - *p.Discount) / 100
}
