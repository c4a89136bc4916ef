package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type categoryRepo struct{ view }

func (r categoryRepo) Create(_ context.Context, category *domain.TicketCategory) error {
	defer r.acquire()()
	if err := r.fail("categories.create"); err != nil {
		return err
	}
	for _, existing := range r.store.data.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return errDuplicate("name")
		}
	}
	category.ID = newID()
	r.store.data.categories[category.ID] = *category
	return nil
}

func (r categoryRepo) Update(_ context.Context, category *domain.TicketCategory) error {
	defer r.acquire()()
	if err := r.fail("categories.update"); err != nil {
		return err
	}
	existing, ok := r.store.data.categories[category.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := *category
	next.CreatedAt = existing.CreatedAt
	r.store.data.categories[category.ID] = next
	return nil
}

func (r categoryRepo) GetByID(_ context.Context, id string) (*domain.TicketCategory, error) {
	defer r.acquire()()
	category, ok := r.store.data.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &category, nil
}

func (r categoryRepo) GetByName(_ context.Context, name string) (*domain.TicketCategory, error) {
	defer r.acquire()()
	for _, category := range r.store.data.categories {
		if strings.EqualFold(category.Name, name) {
			return &category, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r categoryRepo) ListActive(_ context.Context) ([]domain.TicketCategory, error) {
	defer r.acquire()()
	result := []domain.TicketCategory{}
	for _, category := range r.store.data.categories {
		if category.IsActive {
			result = append(result, category)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type commentRepo struct{ view }

func (r commentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	defer r.acquire()()
	if err := r.fail("comments.create"); err != nil {
		return err
	}
	comment.ID = domain.NewCommentID()
	r.store.data.comments[comment.ID] = *comment
	return nil
}

func (r commentRepo) Update(_ context.Context, comment *domain.TicketComment) error {
	defer r.acquire()()
	if err := r.fail("comments.update"); err != nil {
		return err
	}
	if _, ok := r.store.data.comments[comment.ID]; !ok {
		return repository.ErrNotFound
	}
	next := *comment
	next.UpdatedAt = clonePtr(comment.UpdatedAt)
	r.store.data.comments[comment.ID] = next
	return nil
}

func (r commentRepo) GetByID(_ context.Context, id string) (*domain.TicketComment, error) {
	defer r.acquire()()
	comment, ok := r.store.data.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	comment.UpdatedAt = clonePtr(comment.UpdatedAt)
	return &comment, nil
}

func (r commentRepo) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.TicketComment, error) {
	defer r.acquire()()
	result := r.collect(func(c domain.TicketComment) bool {
		return c.TicketID == ticketID && !c.IsDeleted && (includeInternal || !c.IsInternal)
	})
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r commentRepo) ListCreatedBetween(_ context.Context, from, to time.Time) ([]domain.TicketComment, error) {
	defer r.acquire()()
	result := r.collect(func(c domain.TicketComment) bool {
		return !c.IsDeleted && !c.CreatedAt.Before(from) && !c.CreatedAt.After(to)
	})
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r commentRepo) collect(keep func(domain.TicketComment) bool) []domain.TicketComment {
	result := []domain.TicketComment{}
	for _, c := range r.store.data.comments {
		if keep(c) {
			c.UpdatedAt = clonePtr(c.UpdatedAt)
			result = append(result, c)
		}
	}
	return result
}

type clientTicketRepo struct{ view }

func (r clientTicketRepo) NextSequence(_ context.Context) (int64, error) {
	defer r.acquire()()
	if err := r.fail("clients.sequence"); err != nil {
		return 0, err
	}
	r.store.clientSeq++
	return r.store.clientSeq, nil
}

func (r clientTicketRepo) Create(_ context.Context, client *domain.ClientTicket) error {
	defer r.acquire()()
	if err := r.fail("clients.create"); err != nil {
		return err
	}
	client.ID = newID()
	stored := *client
	stored.FileRefs = append([]string{}, client.FileRefs...)
	r.store.data.clients[client.ID] = stored
	return nil
}

func (r clientTicketRepo) GetBySequence(_ context.Context, seq int64) (*domain.ClientTicket, error) {
	return r.find(func(c domain.ClientTicket) bool { return c.Sequence == seq })
}

func (r clientTicketRepo) GetByTicketID(_ context.Context, ticketID string) (*domain.ClientTicket, error) {
	return r.find(func(c domain.ClientTicket) bool { return c.TicketID == ticketID })
}

func (r clientTicketRepo) find(match func(domain.ClientTicket) bool) (*domain.ClientTicket, error) {
	defer r.acquire()()
	for _, client := range r.store.data.clients {
		if match(client) {
			client.FileRefs = append([]string{}, client.FileRefs...)
			return &client, nil
		}
	}
	return nil, repository.ErrNotFound
}

type auditRepo struct{ view }

func (r auditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	defer r.acquire()()
	if err := r.fail("audit.create"); err != nil {
		return err
	}
	entry.ID = newID()
	r.store.data.audit = append(r.store.data.audit, *entry)
	return nil
}

func (r auditRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.AuditLog, error) {
	defer r.acquire()()
	result := []domain.AuditLog{}
	for _, entry := range r.store.data.audit {
		if entry.TicketID != nil && *entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r auditRepo) ListBetween(_ context.Context, from, to time.Time) ([]domain.AuditLog, error) {
	defer r.acquire()()
	result := []domain.AuditLog{}
	for i := len(r.store.data.audit) - 1; i >= 0; i-- {
		entry := r.store.data.audit[i]
		if !entry.CreatedAt.Before(from) && !entry.CreatedAt.After(to) {
			result = append(result, entry)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

type userRepo struct{ view }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	defer r.acquire()()
	if err := r.fail("users.create"); err != nil {
		return err
	}
	for _, existing := range r.store.data.users {
		if existing.Username == user.Username {
			return errDuplicate("username")
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return errDuplicate("email")
		}
	}
	user.ID = newID()
	r.store.data.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	defer r.acquire()()
	if err := r.fail("users.update"); err != nil {
		return err
	}
	if _, ok := r.store.data.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.store.data.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username {
			return errDuplicate("username")
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return errDuplicate("email")
		}
	}
	stored := *user
	stored.LastSeen = clonePtr(user.LastSeen)
	r.store.data.users[user.ID] = stored
	return nil
}

func (r userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	defer r.acquire()()
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := []domain.User{}
	for _, user := range r.store.data.users {
		if filter.IsAdmin != nil && user.IsAdmin != *filter.IsAdmin {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(user.Username), term) &&
			!strings.Contains(strings.ToLower(user.Email), term) {
			continue
		}
		user.LastSeen = clonePtr(user.LastSeen)
		matched = append(matched, user)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	total := len(matched)
	if filter.Offset >= total {
		return []domain.User{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func (r userRepo) ListActiveAdmins(_ context.Context) ([]domain.User, error) {
	defer r.acquire()()
	result := []domain.User{}
	for _, user := range r.store.data.users {
		if user.IsAdmin && user.IsActive {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r userRepo) TouchLastSeen(_ context.Context, id string, at time.Time) error {
	defer r.acquire()()
	user, ok := r.store.data.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.LastSeen = &at
	r.store.data.users[id] = user
	return nil
}

func (r userRepo) find(match func(domain.User) bool) (*domain.User, error) {
	defer r.acquire()()
	for _, user := range r.store.data.users {
		if match(user) {
			user.LastSeen = clonePtr(user.LastSeen)
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

type attachmentRepo struct{ view }

func (r attachmentRepo) Create(_ context.Context, attachment *domain.TicketAttachment) error {
	defer r.acquire()()
	if err := r.fail("attachments.create"); err != nil {
		return err
	}
	attachment.ID = newID()
	r.store.data.attachments = append(r.store.data.attachments, *attachment)
	return nil
}

func (r attachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	defer r.acquire()()
	result := []domain.TicketAttachment{}
	for _, attachment := range r.store.data.attachments {
		if attachment.TicketID == ticketID {
			result = append(result, attachment)
		}
	}
	return result, nil
}
