// model/domain_types.go
package model

// Phase is one row of fases. A phase groups two school grades.
type Phase struct {
	ID          int64  `db:"id" json:"id"`
	Number      int    `db:"numero" json:"numero"`
	Name        string `db:"nombre" json:"nombre"`
	Description string `db:"descripcion" json:"descripcion"`
	GradeRange  string `db:"grados_incluidos" json:"grados_incluidos"`
}

// FormativeField is one of the four fixed pedagogical domains (campos_formativos).
type FormativeField struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"nombre" json:"nombre"`
	Description string `db:"descripcion" json:"descripcion"`
}

// Grade is a single school year scoped to one phase.
type Grade struct {
	ID      int64  `db:"id" json:"id"`
	Number  int    `db:"numero" json:"numero"`
	Label   string `db:"nombre" json:"nombre"`
	PhaseID int64  `db:"fase_id" json:"fase_id"`
}

// ContentItem is a numbered learning topic of one field within one phase.
type ContentItem struct {
	ID      int64  `db:"id" json:"id"`
	Number  int    `db:"numero" json:"numero"`
	Title   string `db:"titulo" json:"titulo"`
	PhaseID int64  `db:"fase_id" json:"fase_id"`
	FieldID int64  `db:"campo_formativo_id" json:"campo_formativo_id"`
}

// ProgressDescriptor is a PDA: a learning-progress statement for one grade under one content item.
type ProgressDescriptor struct {
	ID            int64  `db:"id" json:"id"`
	Number        int    `db:"numero_pda" json:"numero_pda"`
	Description   string `db:"descripcion" json:"descripcion"`
	ContentItemID int64  `db:"contenido_id" json:"contenido_id"`
	GradeID       int64  `db:"grado_id" json:"grado_id"`
}
