package pdfs

// Spec is one row of a record's technical specification table
type Spec struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}

// ContentRecord describes one offering rendered into a specification document.
// Specifications keep the caller's order.
type ContentRecord struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Price          *float64 `json:"price,omitempty"`
	Specifications Specs    `json:"specifications,omitempty"`
	ImageRef       string   `json:"image_ref,omitempty"`
}

// Options toggle the optional sections of a record document
type Options struct {
	IncludeImages              bool `json:"include_images"`
	IncludeTechnicalSpecs      bool `json:"include_technical_specs"`
	IncludeConstructionProcess bool `json:"include_construction_process"`
	IncludePartners            bool `json:"include_partners"`
}

func DefaultOptions() Options {
	return Options{
		IncludeImages:              false,
		IncludeTechnicalSpecs:      true,
		IncludeConstructionProcess: true,
		IncludePartners:            true,
	}
}
