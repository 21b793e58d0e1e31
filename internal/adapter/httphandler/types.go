package httphandler

import (
	"time"

	"github.com/niksmo/prime-house/internal/core/domain"
)

type (
	Property struct {
		ID          string     `json:"id"`
		Title       string     `json:"title"`
		Location    string     `json:"location"`
		Description string     `json:"description"`
		Price       float64    `json:"price"`
		Type        string     `json:"type"`
		Beds        float64    `json:"beds"`
		Baths       float64    `json:"baths"`
		Area        float64    `json:"area"`
		Garages     int        `json:"garages"`
		IPTU        *float64   `json:"iptu,omitempty"`
		Condo       *float64   `json:"condo,omitempty"`
		Image       string     `json:"image"`
		Gallery     []string   `json:"gallery"`
		Featured    bool       `json:"featured"`
		UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
		UpdatedBy   string     `json:"updatedBy,omitempty"`
	}

	PropertiesResponse struct {
		Loading bool       `json:"loading"`
		Count   int        `json:"count"`
		Data    []Property `json:"data"`
	}

	StatusResponse struct {
		Loading   bool   `json:"loading"`
		Count     int    `json:"count"`
		LastError string `json:"lastError,omitempty"`
	}

	// PropertyForm is the admin form. Gallery holds the images to append.
	PropertyForm struct {
		Title       string   `json:"title"`
		Location    string   `json:"location"`
		Description string   `json:"description"`
		Price       float64  `json:"price"`
		Type        string   `json:"type"`
		Beds        float64  `json:"beds"`
		Baths       float64  `json:"baths"`
		Area        float64  `json:"area"`
		Garages     int      `json:"garages"`
		IPTU        float64  `json:"iptu"`
		Condo       float64  `json:"condo"`
		Image       string   `json:"image"`
		Gallery     []string `json:"gallery"`
		Featured    bool     `json:"featured"`
	}

	IDResponse struct {
		ID string `json:"id"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Token     string    `json:"token"`
		Email     string    `json:"email"`
		Admin     bool      `json:"admin"`
		ExpiresAt time.Time `json:"expiresAt"`
	}

	LiveEvent struct {
		Event string     `json:"event"`
		Data  []Property `json:"data"`
	}
)

// Leads API keeps the field names the landing page sends.
type (
	LeadRequest struct {
		Nome      string `json:"nome"`
		Email     string `json:"email"`
		Telefone  string `json:"telefone"`
		Cidade    string `json:"cidade"`
		Estado    string `json:"estado"`
		Categoria string `json:"categoria"`
	}

	Lead struct {
		ID           string    `json:"id"`
		Nome         string    `json:"nome"`
		Email        string    `json:"email"`
		Telefone     string    `json:"telefone"`
		Cidade       *string   `json:"cidade"`
		Estado       *string   `json:"estado"`
		Categoria    *string   `json:"categoria"`
		DataCadastro time.Time `json:"data_cadastro"`
	}

	APIResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    *Lead  `json:"data,omitempty"`
	}

	LeadsResponse struct {
		Success bool   `json:"success"`
		Count   int    `json:"count"`
		Data    []Lead `json:"data"`
	}

	APIStatus struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
)

func propertyFromDomain(v domain.Property) Property {
	p := Property{
		ID:          v.ID,
		Title:       v.Title,
		Location:    v.Location,
		Description: v.Description,
		Price:       v.Price,
		Type:        string(v.Type),
		Beds:        v.Beds,
		Baths:       v.Baths,
		Area:        v.Area,
		Garages:     v.Garages,
		IPTU:        v.IPTU,
		Condo:       v.Condo,
		Image:       v.Image,
		Gallery:     v.Gallery,
		Featured:    v.Featured,
		UpdatedBy:   v.UpdatedBy,
	}
	if p.Gallery == nil {
		p.Gallery = []string{}
	}
	if !v.UpdatedAt.IsZero() {
		t := v.UpdatedAt
		p.UpdatedAt = &t
	}
	return p
}

func propertiesFromDomain(vs []domain.Property) []Property {
	ps := make([]Property, 0, len(vs))
	for _, v := range vs {
		ps = append(ps, propertyFromDomain(v))
	}
	return ps
}

func (f PropertyForm) toDomain(id string) domain.PropertyDraft {
	return domain.PropertyDraft{
		ID:          id,
		Title:       f.Title,
		Location:    f.Location,
		Description: f.Description,
		Price:       f.Price,
		Type:        domain.PropertyType(f.Type),
		Beds:        f.Beds,
		Baths:       f.Baths,
		Area:        f.Area,
		Garages:     f.Garages,
		IPTU:        f.IPTU,
		Condo:       f.Condo,
		Image:       f.Image,
		NewGallery:  f.Gallery,
		Featured:    f.Featured,
	}
}

func (r LeadRequest) toDomain() domain.LeadDraft {
	return domain.LeadDraft{
		Name:     r.Nome,
		Email:    r.Email,
		Phone:    r.Telefone,
		City:     r.Cidade,
		State:    r.Estado,
		Category: r.Categoria,
	}
}

func leadFromDomain(v domain.Lead) Lead {
	return Lead{
		ID:           v.ID,
		Nome:         v.Name,
		Email:        v.Email,
		Telefone:     v.Phone,
		Cidade:       v.City,
		Estado:       v.State,
		Categoria:    v.Category,
		DataCadastro: v.CreatedAt,
	}
}

// ToDomain is used by clients of the live feed and the list route.
func (p Property) ToDomain() domain.Property {
	v := domain.Property{
		ID:          p.ID,
		Title:       p.Title,
		Location:    p.Location,
		Description: p.Description,
		Price:       p.Price,
		Type:        domain.PropertyType(p.Type),
		Beds:        p.Beds,
		Baths:       p.Baths,
		Area:        p.Area,
		Garages:     p.Garages,
		IPTU:        p.IPTU,
		Condo:       p.Condo,
		Image:       p.Image,
		Gallery:     p.Gallery,
		Featured:    p.Featured,
		UpdatedBy:   p.UpdatedBy,
	}
	if p.UpdatedAt != nil {
		v.UpdatedAt = *p.UpdatedAt
	}
	return v
}

func PropertiesToDomain(ps []Property) []domain.Property {
	vs := make([]domain.Property, 0, len(ps))
	for _, p := range ps {
		vs = append(vs, p.ToDomain())
	}
	return vs
}
