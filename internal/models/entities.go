package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/schedule"
)

// OutcomeValue is a recorded measurement.
type OutcomeValue = schedule.Value

// Reference points from one entity to a version of another.
type Reference struct {
	Kind      Kind
	VersionID uuid.UUID
}

// Name is a person's name.
type Name struct {
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
	Prefix     string `json:"namePrefix,omitempty"`
	Suffix     string `json:"nameSuffix,omitempty"`
	Nickname   string `json:"nickname,omitempty"`
}

// Patient is the person a care plan is for.
type Patient struct {
	Birthday  *time.Time `json:"birthday,omitempty"`
	Name      Name       `json:"name"`
	Sex       string     `json:"sex,omitempty"`
	Allergies []string   `json:"allergies,omitempty"`
	Versioned
}

func (p *Patient) Kind() Kind               { return KindPatient }
func (p *Patient) References() []Reference { return nil }

func (p *Patient) Clone() Versionable {
	c := *p
	c.Versioned = p.Versioned.Clone()
	c.Birthday = cloneTime(p.Birthday)
	c.Allergies = slices.Clone(p.Allergies)
	return &c
}

// CarePlan groups tasks and contacts for a patient.
type CarePlan struct {
	PatientVersionID *uuid.UUID `json:"patientUUID,omitempty"`
	Title            string     `json:"title"`
	Versioned
}

func (p *CarePlan) Kind() Kind { return KindCarePlan }

func (p *CarePlan) References() []Reference {
	if p.PatientVersionID == nil {
		return nil
	}
	return []Reference{{Kind: KindPatient, VersionID: *p.PatientVersionID}}
}

func (p *CarePlan) Clone() Versionable {
	c := *p
	c.Versioned = p.Versioned.Clone()
	c.PatientVersionID = cloneUUID(p.PatientVersionID)
	return &c
}

// Contact is a member of the care team.
type Contact struct {
	CarePlanVersionID *uuid.UUID `json:"carePlanUUID,omitempty"`
	Name              Name       `json:"name"`
	Category          string     `json:"category,omitempty"`
	Role              string     `json:"role,omitempty"`
	Title             string     `json:"title,omitempty"`
	Organization      string     `json:"organization,omitempty"`
	EmailAddresses    []string   `json:"emailAddresses,omitempty"`
	PhoneNumbers      []string   `json:"phoneNumbers,omitempty"`
	Addresses         []string   `json:"addresses,omitempty"`
	Versioned
}

func (c *Contact) Kind() Kind { return KindContact }

func (c *Contact) References() []Reference {
	if c.CarePlanVersionID == nil {
		return nil
	}
	return []Reference{{Kind: KindCarePlan, VersionID: *c.CarePlanVersionID}}
}

func (c *Contact) Clone() Versionable {
	out := *c
	out.Versioned = c.Versioned.Clone()
	out.CarePlanVersionID = cloneUUID(c.CarePlanVersionID)
	out.EmailAddresses = slices.Clone(c.EmailAddresses)
	out.PhoneNumbers = slices.Clone(c.PhoneNumbers)
	out.Addresses = slices.Clone(c.Addresses)
	return &out
}

// Task is something the patient does on a schedule.
type Task struct {
	CarePlanVersionID *uuid.UUID        `json:"carePlanUUID,omitempty"`
	Title             string            `json:"title,omitempty"`
	Instructions      string            `json:"instructions,omitempty"`
	Schedule          schedule.Schedule `json:"schedule"`
	ImpactsAdherence  bool              `json:"impactsAdherence"`
	Versioned
}

func (t *Task) Kind() Kind { return KindTask }

func (t *Task) References() []Reference {
	if t.CarePlanVersionID == nil {
		return nil
	}
	return []Reference{{Kind: KindCarePlan, VersionID: *t.CarePlanVersionID}}
}

func (t *Task) Clone() Versionable {
	c := *t
	c.Versioned = t.Versioned.Clone()
	c.CarePlanVersionID = cloneUUID(t.CarePlanVersionID)
	c.Schedule = t.Schedule.Clone()
	return &c
}

// Outcome records what happened at one occurrence of one task version.
// Outcomes are not chained: updates and deletes mutate the stored row.
type Outcome struct {
	Values              []OutcomeValue `json:"values"`
	TaskOccurrenceIndex int            `json:"taskOccurrenceIndex"`
	TaskVersionID       uuid.UUID      `json:"taskUUID"`
	Versioned
}

// OutcomeID derives the identifier of the outcome for an occurrence.
func OutcomeID(taskVersionID uuid.UUID, occurrence int) string {
	return fmt.Sprintf("%s_%d", taskVersionID, occurrence)
}

func (o *Outcome) Kind() Kind { return KindOutcome }

func (o *Outcome) References() []Reference {
	return []Reference{{Kind: KindTask, VersionID: o.TaskVersionID}}
}

func (o *Outcome) Clone() Versionable {
	c := *o
	c.Versioned = o.Versioned.Clone()
	if o.Values != nil {
		c.Values = make([]OutcomeValue, len(o.Values))
		for i, v := range o.Values {
			c.Values[i] = v.Clone()
		}
	}
	return &c
}
