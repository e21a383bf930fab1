package api

import "encoding/json"

// Entity представляет одну версию сущности в revision record
type Entity struct {
	Type   string          `json:"type"`   // patient, carePlan, contact, task, outcome
	Object json.RawMessage `json:"object"` // сущность в JSON
}

// Process представляет логические часы одного участника синхронизации
type Process struct {
	ID    string `json:"id"`    // UUID часов
	Clock uint64 `json:"clock"` // значение часов
}

// KnowledgeVector перечисляет известные отправителю часы, отсортированные по ID
type KnowledgeVector struct {
	Processes []Process `json:"processes"`
}

// RevisionRecord представляет пачку версий, помеченную знанием отправителя
type RevisionRecord struct {
	Entities        []Entity        `json:"entities"`
	KnowledgeVector KnowledgeVector `json:"knowledgeVector"`
}

// PushRequest представляет отправку revision records удаленному участнику
type PushRequest struct {
	Records   []RevisionRecord `json:"records"`
	Knowledge KnowledgeVector  `json:"knowledge"` // знание отправителя на момент отправки
}
