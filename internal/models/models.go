package models

// Dimensions is an image size in pixels, parsed from a placeholder URL.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the pixel area of the image.
func (d Dimensions) Area() int {
	return d.Width * d.Height
}

// AspectRatio returns width divided by height, or 0 for degenerate sizes.
func (d Dimensions) AspectRatio() float64 {
	if d.Height == 0 {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}

// ImageOccurrence is one placeholder image URL found at one location in a
// JSON document. Occurrences are immutable once extracted; the same URL may
// appear at many locations.
type ImageOccurrence struct {
	URL        string         `json:"url"`
	Path       string         `json:"path"`       // structural locator, e.g. items[3].thumbnail
	FieldName  string         `json:"field_name"` // last path segment
	Context    map[string]any `json:"context,omitempty"`
	Dimensions Dimensions     `json:"dimensions"`
	Seed       string         `json:"seed,omitempty"`
	ItemIndex  int            `json:"item_index"` // index within nearest enclosing array, -1 if none
}

// Category is the semantic category inferred for an image occurrence.
type Category string

const (
	CategoryProduct  Category = "product"
	CategoryAvatar   Category = "avatar"
	CategoryLogo     Category = "logo"
	CategoryBanner   Category = "banner"
	CategoryFood     Category = "food"
	CategoryFashion  Category = "fashion"
	CategoryLocation Category = "location"
	CategoryNature   Category = "nature"
	CategoryVehicle  Category = "vehicle"
	CategoryGeneric  Category = "generic"
)

// Description is the derived prompt annotation for one occurrence.
type Description struct {
	Prompt         string   `json:"prompt"`
	EnhancedPrompt string   `json:"enhanced_prompt"` // styled/localized text sent to the generator
	Category       Category `json:"category"`
	Confidence     float64  `json:"confidence"` // in [0,1]
	BaseContext    string   `json:"base_context,omitempty"`
	Style          string   `json:"style,omitempty"`
}

// ProcessingType classifies how an occurrence obtains its image.
type ProcessingType string

const (
	ProcessGenerate ProcessingType = "generate"
	ProcessResize   ProcessingType = "resize"
	ProcessCrop     ProcessingType = "crop"
	ProcessReuse    ProcessingType = "reuse"
)

// Relative cost units per processing type.
const (
	CostGenerate = 1.0
	CostCrop     = 0.3
	CostResize   = 0.2
	CostReuse    = 0.1
)

// Cost returns the relative cost unit for the processing type.
func (t ProcessingType) Cost() float64 {
	switch t {
	case ProcessCrop:
		return CostCrop
	case ProcessResize:
		return CostResize
	case ProcessReuse:
		return CostReuse
	default:
		return CostGenerate
	}
}

// CropRegion is a rectangle within a master image, in pixels.
type CropRegion struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ProcessingPlan is one unit of generation work for one occurrence.
type ProcessingPlan struct {
	ImageID          string         `json:"image_id"` // occurrence path
	OriginalURL      string         `json:"original_url"`
	Type             ProcessingType `json:"processing_type"`
	SourceImageID    string         `json:"source_image_id,omitempty"` // set iff Type != generate
	TargetDimensions Dimensions     `json:"target_dimensions"`
	CropRegion       *CropRegion    `json:"crop_region,omitempty"` // set iff Type == crop
	Description      Description    `json:"description"`
	Priority         int            `json:"priority"` // in [1,10], higher is more urgent
	EstimatedCost    float64        `json:"estimated_cost"`
	Seed             string         `json:"seed,omitempty"`
}

// ProcessingGroup is a cluster of occurrences similar enough to share one
// generated master image. Variants includes the master's own generate plan.
type ProcessingGroup struct {
	MasterImageID    string           `json:"master_image_id"`
	Description      Description      `json:"description"`
	TargetDimensions Dimensions       `json:"target_dimensions"`
	Variants         []ProcessingPlan `json:"variants"`
	TotalCost        float64          `json:"total_cost"`
}

// AveragePriority returns the mean variant priority, used to order groups
// during generation.
func (g *ProcessingGroup) AveragePriority() float64 {
	if len(g.Variants) == 0 {
		return 0
	}
	total := 0
	for _, v := range g.Variants {
		total += v.Priority
	}
	return float64(total) / float64(len(g.Variants))
}

// ExtractionResult is the output of the URL extraction stage.
type ExtractionResult struct {
	Occurrences     []ImageOccurrence            `json:"occurrences"`
	TotalFound      int                          `json:"total_found"`
	UniqueURLs      int                          `json:"unique_urls"`
	DuplicateGroups map[string][]ImageOccurrence `json:"duplicate_groups,omitempty"` // keyed by normalized URL
}

// OptimizationResult is the output of the processing analyzer.
type OptimizationResult struct {
	Groups           []ProcessingGroup `json:"groups"`
	TotalImages      int               `json:"total_images"`
	GeneratedImages  int               `json:"generated_images"`
	ResizedImages    int               `json:"resized_images"`
	CroppedImages    int               `json:"cropped_images"`
	ReusedImages     int               `json:"reused_images"`
	EstimatedSavings float64           `json:"estimated_savings"` // percent in [0,100]
}

// GeneratedImage records one successfully generated and uploaded image.
type GeneratedImage struct {
	ImageID     string `json:"image_id"`
	OriginalURL string `json:"original_url"`
	URL         string `json:"url"`
	CDNURL      string `json:"cdn_url,omitempty"`
	StorageKey  string `json:"storage_key,omitempty"`
	Master      bool   `json:"master"`
}

// GenerationFailure records one occurrence whose group failed to generate.
type GenerationFailure struct {
	ImageID     string `json:"image_id"`
	OriginalURL string `json:"original_url"`
	Error       string `json:"error"`
}

// GenerationResult is the output of the generation driver.
type GenerationResult struct {
	Images         []GeneratedImage    `json:"images"`
	Failures       []GenerationFailure `json:"failures,omitempty"`
	URLsByOriginal map[string]string   `json:"urls_by_original"`          // original URL -> generated URL
	CDNByOriginal  map[string]string   `json:"cdn_by_original,omitempty"` // original URL -> CDN URL
}

// ReplacementType tells how a replacement URL was resolved.
type ReplacementType string

const (
	ReplaceDirect   ReplacementType = "direct"
	ReplaceVariant  ReplacementType = "variant"
	ReplaceFallback ReplacementType = "fallback"
)

// URLMapping is one resolved original-to-replacement correspondence.
type URLMapping struct {
	OriginalURL string          `json:"original_url"`
	NewURL      string          `json:"new_url"`
	CDNURL      string          `json:"cdn_url,omitempty"`
	Path        string          `json:"path"`
	FieldName   string          `json:"field_name"`
	ItemIndex   int             `json:"item_index"`
	Type        ReplacementType `json:"replacement_type"`
}

// ReplacementResult is the output of the URL replacement stage.
type ReplacementResult struct {
	Document         any          `json:"document,omitempty"`
	Mappings         []URLMapping `json:"mappings"`
	ReplacedCount    int          `json:"replaced_count"`
	FailedCount      int          `json:"failed_count"`
	Errors           []string     `json:"errors,omitempty"`
	ValidationErrors []string     `json:"validation_errors,omitempty"`
}

// StageTiming records wall-clock duration and item count for one stage.
type StageTiming struct {
	Stage      string `json:"stage"`
	DurationMs int64  `json:"duration_ms"`
	Items      int    `json:"items"`
}

// PipelineResult is the final result assembled by the orchestrator.
type PipelineResult struct {
	RunID               string              `json:"run_id"`
	Success             bool                `json:"success"`
	OriginalImageCount  int                 `json:"original_image_count"`
	ProcessedImageCount int                 `json:"processed_image_count"`
	GeneratedImageCount int                 `json:"generated_image_count"`
	OptimizationSavings float64             `json:"optimization_savings"`
	ProcessingTimeMs    int64               `json:"processing_time_ms"`
	Extraction          *ExtractionResult   `json:"extraction,omitempty"`
	Optimization        *OptimizationResult `json:"optimization,omitempty"`
	Replacement         *ReplacementResult  `json:"replacement,omitempty"`
	ProcessedData       any                 `json:"processed_data"`
	StageTimings        []StageTiming       `json:"stage_timings,omitempty"`
	Errors              []string            `json:"errors,omitempty"`
	Warnings            []string            `json:"warnings,omitempty"`
}
