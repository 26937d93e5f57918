package api

import (
	"context"
	"net/http"

	"mindconnect/internal/model"
)

func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func get[T any](ctx context.Context, c *Client, path string) (*T, error) {
	var out T
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// auth

func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error) {
	return send[model.LoginResponse](ctx, c, http.MethodPost, pathLogin, creds)
}

// Register posts to register-therapist for therapists and register otherwise.
func (c *Client) Register(ctx context.Context, r model.Registration) error {
	path := pathRegister
	if r.UserType == model.UserTypeTherapist {
		path = pathRegisterTherapist
	}
	return c.do(ctx, http.MethodPost, path, r, nil)
}

// users

func (c *Client) Users(ctx context.Context) ([]model.Identity, error) {
	return list[model.Identity](ctx, c, pathUsers)
}

func (c *Client) User(ctx context.Context, id int64) (*model.Identity, error) {
	return get[model.Identity](ctx, c, itemPath(pathUsers, id))
}

func (c *Client) CreateUser(ctx context.Context, u model.Identity) (*model.Identity, error) {
	return send[model.Identity](ctx, c, http.MethodPost, pathUsers, u)
}

func (c *Client) UpdateUser(ctx context.Context, u model.Identity) (*model.Identity, error) {
	return send[model.Identity](ctx, c, http.MethodPut, itemPath(pathUsers, u.ID), u)
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, itemPath(pathUsers, id), nil, nil)
}

// therapists

func (c *Client) Therapists(ctx context.Context) ([]model.Identity, error) {
	return list[model.Identity](ctx, c, pathTherapists)
}

func (c *Client) AvailableTherapists(ctx context.Context) ([]model.Identity, error) {
	return list[model.Identity](ctx, c, pathTherapists+"/available")
}

func (c *Client) Therapist(ctx context.Context, id int64) (*model.Identity, error) {
	return get[model.Identity](ctx, c, itemPath(pathTherapists, id))
}

func (c *Client) CreateTherapist(ctx context.Context, t model.Identity) (*model.Identity, error) {
	return send[model.Identity](ctx, c, http.MethodPost, pathTherapists, t)
}

func (c *Client) UpdateTherapist(ctx context.Context, t model.Identity) (*model.Identity, error) {
	return send[model.Identity](ctx, c, http.MethodPut, itemPath(pathTherapists, t.ID), t)
}

func (c *Client) DeleteTherapist(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, itemPath(pathTherapists, id), nil, nil)
}

// sessions

func (c *Client) Sessions(ctx context.Context) ([]model.Session, error) {
	return list[model.Session](ctx, c, pathSessions)
}

func (c *Client) SessionsByTherapist(ctx context.Context, therapistID int64) ([]model.Session, error) {
	return list[model.Session](ctx, c, itemPath(pathSessions+"/therapist", therapistID))
}

func (c *Client) SessionsByUser(ctx context.Context, userID int64) ([]model.Session, error) {
	return list[model.Session](ctx, c, itemPath(pathSessions+"/user", userID))
}

func (c *Client) Session(ctx context.Context, id int64) (*model.Session, error) {
	return get[model.Session](ctx, c, itemPath(pathSessions, id))
}

func (c *Client) CreateSession(ctx context.Context, s model.Session) (*model.Session, error) {
	return send[model.Session](ctx, c, http.MethodPost, pathSessions, s)
}

func (c *Client) UpdateSession(ctx context.Context, s model.Session) (*model.Session, error) {
	return send[model.Session](ctx, c, http.MethodPut, itemPath(pathSessions, s.ID), s)
}

// UpdateSessionStatus sends the bare status value (a JSON string) as the body.
func (c *Client) UpdateSessionStatus(ctx context.Context, id int64, status model.SessionStatus) error {
	return c.do(ctx, http.MethodPut, itemPath(pathSessions, id)+"/status", status, nil)
}

func (c *Client) DeleteSession(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, itemPath(pathSessions, id), nil, nil)
}

// journals

func (c *Client) Journals(ctx context.Context) ([]model.Journal, error) {
	return list[model.Journal](ctx, c, pathJournals)
}

func (c *Client) JournalsByUser(ctx context.Context, userID int64) ([]model.Journal, error) {
	return list[model.Journal](ctx, c, itemPath(pathJournals+"/user", userID))
}

func (c *Client) Journal(ctx context.Context, id int64) (*model.Journal, error) {
	return get[model.Journal](ctx, c, itemPath(pathJournals, id))
}

func (c *Client) CreateJournal(ctx context.Context, j model.Journal) (*model.Journal, error) {
	return send[model.Journal](ctx, c, http.MethodPost, pathJournals, j)
}

func (c *Client) UpdateJournal(ctx context.Context, j model.Journal) (*model.Journal, error) {
	return send[model.Journal](ctx, c, http.MethodPut, itemPath(pathJournals, j.ID), j)
}

func (c *Client) DeleteJournal(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, itemPath(pathJournals, id), nil, nil)
}

// motivations

func (c *Client) Motivations(ctx context.Context) ([]model.Motivation, error) {
	return list[model.Motivation](ctx, c, pathMotivations)
}

func (c *Client) CreateMotivation(ctx context.Context, m model.Motivation) (*model.Motivation, error) {
	return send[model.Motivation](ctx, c, http.MethodPost, pathMotivations, m)
}

func (c *Client) UpdateMotivation(ctx context.Context, m model.Motivation) (*model.Motivation, error) {
	return send[model.Motivation](ctx, c, http.MethodPut, itemPath(pathMotivations, m.ID), m)
}

func (c *Client) ToggleMotivation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, itemPath(pathMotivations, id)+"/toggle", struct{}{}, nil)
}

func (c *Client) DeleteMotivation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, itemPath(pathMotivations, id), nil, nil)
}

// notifications

func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	return list[model.Notification](ctx, c, pathNotifications)
}

func (c *Client) NotificationsByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	return list[model.Notification](ctx, c, itemPath(pathNotifications+"/user", userID))
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, itemPath(pathNotifications, id)+"/read", struct{}{}, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, itemPath(pathNotifications, id), nil, nil)
}
