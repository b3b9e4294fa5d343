package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/TWRT/board-sync/internal/client"
	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/state"
	"github.com/TWRT/board-sync/internal/validate"
)

const contactsPath = "contacts"

var ErrContactNotFound = errors.New("contact not found")

// AssigneeRemover drops a contact name from every task it is assigned to.
type AssigneeRemover interface {
	RemoveAssignee(ctx context.Context, name string) (int, error)
}

type ContactGroup struct {
	Letter   string           `json:"letter"`
	Contacts []models.Contact `json:"contacts"`
}

func ValidateContact(form models.ContactForm) error {
	errs := validate.Errors{}
	if strings.TrimSpace(form.Name) == "" {
		errs.Add("name", validate.MsgRequired)
	}
	if strings.TrimSpace(form.Email) == "" {
		errs.Add("email", validate.MsgRequired)
	} else if !validate.IsEmail(form.Email) {
		errs.Add("email", validate.MsgInvalidEmail)
	}
	if form.Phone != "" && !validate.IsPhone(form.Phone) {
		errs.Add("phone", validate.MsgInvalidPhone)
	}
	return errs.Err()
}

type ContactService struct {
	store    client.DocumentStore
	tasks    AssigneeRemover
	logger   zerolog.Logger
	contacts *state.Value[[]models.Contact]
	kept     undecodedMembers

	writeMu sync.Mutex
}

func NewContactService(store client.DocumentStore, tasks AssigneeRemover, logger zerolog.Logger) *ContactService {
	return &ContactService{
		store:    store,
		tasks:    tasks,
		logger:   logger.With().Str("service", "contacts").Logger(),
		contacts: state.NewValue([]models.Contact{}),
	}
}

func (s *ContactService) Load(ctx context.Context) []models.Contact {
	return s.apply(s.store.Load(ctx, contactsPath))
}

// Refresh reloads like Load but keeps the cache when the read itself fails.
func (s *ContactService) Refresh(ctx context.Context) bool {
	raw := s.store.Load(ctx, contactsPath)
	if raw == nil {
		s.logger.Warn().Msg("contact collection unreadable, keeping cached contacts")
		return false
	}
	s.apply(raw)
	return true
}

func (s *ContactService) apply(raw json.RawMessage) []models.Contact {
	contacts, undecoded := decodeCollection[models.Contact](s.logger, contactsPath, raw)
	s.kept.Set(undecoded)
	s.contacts.Set(contacts)
	s.logger.Debug().
		Int("count", len(contacts)).
		Int("undecoded", len(undecoded)).
		Msg("loaded contacts")
	return contacts
}

func (s *ContactService) Contacts() []models.Contact {
	return s.contacts.Get()
}

func (s *ContactService) Subscribe() (<-chan []models.Contact, func()) {
	return s.contacts.Subscribe()
}

func (s *ContactService) ContactByID(id string) (models.Contact, bool) {
	for _, c := range s.contacts.Get() {
		if c.ID == id {
			return c, true
		}
	}
	return models.Contact{}, false
}

func (s *ContactService) ContactByName(name string) (models.Contact, bool) {
	for _, c := range s.contacts.Get() {
		if c.Name == name {
			return c, true
		}
	}
	return models.Contact{}, false
}

// Sorted orders contacts by name using locale-aware collation.
func (s *ContactService) Sorted() []models.Contact {
	contacts := slices.Clone(s.contacts.Get())
	col := collate.New(language.Und)
	slices.SortStableFunc(contacts, func(a, b models.Contact) int {
		return col.CompareString(a.Name, b.Name)
	})
	return contacts
}

// Grouped buckets the sorted contacts by the upper-cased first letter.
func (s *ContactService) Grouped() []ContactGroup {
	var groups []ContactGroup
	for _, c := range s.Sorted() {
		letter := models.GroupLetter(c.Name)
		if n := len(groups); n > 0 && groups[n-1].Letter == letter {
			groups[n-1].Contacts = append(groups[n-1].Contacts, c)
			continue
		}
		groups = append(groups, ContactGroup{Letter: letter, Contacts: []models.Contact{c}})
	}
	return groups
}

// nextID is one past the highest numeric id, "0" for an empty collection.
// Ids that do not parse count as zero.
func nextID(contacts []models.Contact) string {
	if len(contacts) == 0 {
		return "0"
	}
	highest := 0
	for _, c := range contacts {
		if n, err := strconv.Atoi(c.ID); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

// keptIDs reads the ids of undecoded records so new ids never reuse them.
func keptIDs(raw []json.RawMessage) []models.Contact {
	var out []models.Contact
	for _, m := range raw {
		var rec struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(m, &rec); err == nil && rec.ID != "" {
			out = append(out, models.Contact{ID: rec.ID})
		}
	}
	return out
}

func (s *ContactService) Create(ctx context.Context, form models.ContactForm) (models.Contact, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.contacts.Get()
	contact := models.Contact{
		ID:    nextID(append(slices.Clone(current), keptIDs(s.kept.Get())...)),
		Name:  form.Name,
		Email: form.Email,
		Phone: form.Phone,
	}

	contacts := make([]models.Contact, 0, len(current)+1)
	contacts = append(contacts, current...)
	contacts = append(contacts, contact)

	if err := s.persist(ctx, contacts); err != nil {
		return models.Contact{}, err
	}
	s.logger.Info().Str("contact_id", contact.ID).Msg("created contact")
	return contact, nil
}

func (s *ContactService) Update(ctx context.Context, id string, form models.ContactForm) (models.Contact, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.contacts.Get()
	idx := slices.IndexFunc(current, func(c models.Contact) bool { return c.ID == id })
	if idx < 0 {
		return models.Contact{}, ErrContactNotFound
	}

	contacts := slices.Clone(current)
	contacts[idx].Name = form.Name
	contacts[idx].Email = form.Email
	contacts[idx].Phone = form.Phone

	if err := s.persist(ctx, contacts); err != nil {
		return models.Contact{}, err
	}
	s.logger.Info().Str("contact_id", id).Msg("updated contact")
	return contacts[idx], nil
}

// Delete first unassigns the contact from every task, then removes it.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.contacts.Get()
	idx := slices.IndexFunc(current, func(c models.Contact) bool { return c.ID == id })
	if idx < 0 {
		return ErrContactNotFound
	}

	if s.tasks != nil {
		if _, err := s.tasks.RemoveAssignee(ctx, current[idx].Name); err != nil {
			return fmt.Errorf("unassign %s: %w", current[idx].Name, err)
		}
	}

	contacts := slices.Delete(slices.Clone(current), idx, idx+1)
	if err := s.persist(ctx, contacts); err != nil {
		return err
	}
	s.logger.Info().Str("contact_id", id).Msg("deleted contact")
	return nil
}

// BackfillPhones gives every contact without a phone the next number from
// numbers, wrapping around.
func (s *ContactService) BackfillPhones(ctx context.Context, numbers []string) (int, error) {
	if len(numbers) == 0 {
		return 0, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	contacts := slices.Clone(s.contacts.Get())
	changed := 0
	for i := range contacts {
		if contacts[i].Phone != "" {
			continue
		}
		contacts[i].Phone = numbers[changed%len(numbers)]
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, contacts); err != nil {
		return 0, err
	}
	return changed, nil
}

func (s *ContactService) persist(ctx context.Context, contacts []models.Contact) error {
	if s.store.Put(ctx, contactsPath, collectionDoc(contacts, s.kept.Get())) == nil {
		s.logger.Warn().Int("count", len(contacts)).Msg("contact collection write failed, cache left unchanged")
		return ErrPersistFailed
	}
	s.contacts.Set(contacts)
	return nil
}
