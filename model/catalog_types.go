package model

// FieldSummary is one line of the per-phase summary: counts of content items
// and descriptors for a formative field.
type FieldSummary struct {
	FieldID         int64  `db:"campo_id" json:"campo_id"`
	FieldName       string `db:"campo_nombre" json:"campo_nombre"`
	ContentCount    int    `db:"num_contenidos" json:"num_contenidos"`
	DescriptorCount int    `db:"num_pdas" json:"num_pdas"`
}

// PhaseFieldCount is a whole-database count for one (phase, field) pair.
type PhaseFieldCount struct {
	PhaseNumber     int    `db:"fase_numero" json:"fase"`
	FieldName       string `db:"campo_nombre" json:"campo"`
	ContentCount    int    `db:"num_contenidos" json:"num_contenidos"`
	DescriptorCount int    `db:"num_pdas" json:"num_pdas"`
}

// ContentListItem is a content item as listed under a field and phase.
type ContentListItem struct {
	ID     int64  `db:"id" json:"id"`
	Number int    `db:"numero" json:"numero"`
	Title  string `db:"titulo" json:"titulo"`
}

// DescriptorView is a descriptor as shown in a content detail page.
type DescriptorView struct {
	Grade       string `db:"grado" json:"grado"`
	Number      int    `db:"numero_pda" json:"numero_pda"`
	Description string `db:"descripcion" json:"descripcion"`
}

// GradeDescriptors groups the descriptors of a content item for one grade.
type GradeDescriptors struct {
	Grade       string           `json:"grado"`
	Descriptors []DescriptorView `json:"pdas"`
}

// FilteredDescriptor is a descriptor listed with its content item, field and grade.
type FilteredDescriptor struct {
	ProgressDescriptor
	Content     ContentListItem `db:"contenido" json:"contenido"`
	FieldName   string          `db:"campo" json:"campo"`
	Grade       string          `db:"grado" json:"grado"`
	GradeNumber int             `db:"grado_numero" json:"grado_numero"`
	PhaseNumber int             `db:"fase_numero" json:"fase"`
}

// ContentDetail is a content item with its descriptors grouped by grade.
type ContentDetail struct {
	ID          int64              `db:"id" json:"id"`
	Number      int                `db:"numero" json:"numero"`
	Title       string             `db:"titulo" json:"titulo"`
	PhaseNumber int                `db:"fase_num" json:"fase"`
	FieldName   string             `db:"campo_nombre" json:"campo"`
	Grades      []GradeDescriptors `db:"-" json:"grados"`
}

// ContentMatch is a content item whose title matched a search.
type ContentMatch struct {
	ID        int64  `db:"id" json:"id"`
	FieldName string `db:"campo" json:"campo"`
	Number    int    `db:"numero" json:"numero"`
	Title     string `db:"titulo" json:"titulo"`
}

// DescriptorMatch is a descriptor whose text matched a search.
type DescriptorMatch struct {
	ContentID   int64  `db:"contenido_id" json:"contenido_id"`
	FieldName   string `db:"campo" json:"campo"`
	Title       string `db:"titulo" json:"titulo"`
	Grade       string `db:"grado" json:"grado"`
	Number      int    `db:"numero_pda" json:"numero_pda"`
	Description string `db:"descripcion" json:"descripcion"`
}

// SearchResult bundles both kinds of matches.
type SearchResult struct {
	Contents    []ContentMatch    `json:"contenidos"`
	Descriptors []DescriptorMatch `json:"pdas"`
}
