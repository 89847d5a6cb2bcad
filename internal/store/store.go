package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all store implementations. Services translate
// these into their own error vocabulary.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleTransition is returned when a conditional status update matched
	// no rows, meaning another actor already moved the record out of the
	// expected status.
	ErrStaleTransition = errors.New("record is not in the expected status")
)

// Role defines a user's role in the system.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered user.
type User struct {
	ID           string // UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Locked       bool
	CreatedAt    time.Time
}

// ConnectionStatus defines the lifecycle state of a connection request.
type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
)

// Connection represents a contact link (or pending request) between two users.
// Rejected and canceled requests are deleted, not retained, so only pending
// and accepted rows ever exist.
type Connection struct {
	ID         string // UUID
	SenderID   string
	ReceiverID string
	Status     ConnectionStatus
	ChatRoomID *string // set when the request is accepted
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AppointmentStatus defines the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentStatusPending  AppointmentStatus = "pending"
	AppointmentStatusAccepted AppointmentStatus = "accepted"
	AppointmentStatusRejected AppointmentStatus = "rejected"
	AppointmentStatusCanceled AppointmentStatus = "canceled"
)

// Appointment represents a scheduling request between two users. Unlike
// connections, terminal rejected/canceled rows are retained.
type Appointment struct {
	ID          string // UUID
	SenderID    string
	ReceiverID  string
	StartTime   time.Time
	EndTime     time.Time
	Description string
	Status      AppointmentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChatRoom represents a persisted chat room provisioned for an accepted
// connection.
type ChatRoom struct {
	ID        string // UUID
	CreatedAt time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID         string // UUID
	ChatRoomID string
	SenderID   string
	Content    string
	CreatedAt  time.Time
}

// ReportStatus defines the moderation state of a report.
type ReportStatus string

const (
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusWarned     ReportStatus = "warned"
	ReportStatusBanned     ReportStatus = "banned"
	ReportStatusCompleted  ReportStatus = "completed"
	ReportStatusCanceled   ReportStatus = "canceled"
)

// Report represents a user report filed against another user.
type Report struct {
	ID         string // UUID
	ReporterID string
	TargetID   string
	Reason     string
	Status     ReportStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SearchUsers searches for users by name.
	SearchUsers(ctx context.Context, query string) ([]*User, error)

	// ListUsers lists all users (admin use).
	ListUsers(ctx context.Context) ([]*User, error)

	// SetUserLock sets or clears a user's lock flag.
	SetUserLock(ctx context.Context, id string, locked bool) error
	// SetUserRole changes a user's role.
	SetUserRole(ctx context.Context, id string, role Role) error
}

// ConnectionStore handles connection request persistence. Status transitions
// are conditional updates so that two concurrent actors cannot both win.
type ConnectionStore interface {
	// CreateConnection creates a new pending connection request.
	CreateConnection(ctx context.Context, senderID, receiverID string) (*Connection, error)

	// GetConnection retrieves a connection by ID.
	GetConnection(ctx context.Context, id string) (*Connection, error)

	// GetConnectionBetween retrieves the connection between two users in
	// either direction, regardless of status.
	GetConnectionBetween(ctx context.Context, userA, userB string) (*Connection, error)

	// AcceptConnection transitions a pending connection to accepted and
	// provisions its chat room with both participants, all in one
	// transaction. Returns ErrStaleTransition if the row is no longer
	// pending.
	AcceptConnection(ctx context.Context, id string) (*Connection, error)

	// DeletePendingConnection deletes a connection only if it is still
	// pending. Returns ErrStaleTransition otherwise.
	DeletePendingConnection(ctx context.Context, id string) error

	// DeleteConnection deletes a connection and its chat room (participants
	// and messages cascade).
	DeleteConnection(ctx context.Context, id string) error

	// ListConnections lists connections where the user is on either side,
	// optionally filtered by status, newest first.
	ListConnections(ctx context.Context, userID string, status *ConnectionStatus) ([]*Connection, error)
}

// AppointmentStore handles appointment persistence.
type AppointmentStore interface {
	// CreateAppointment persists a new appointment and fills in its ID and
	// timestamps.
	CreateAppointment(ctx context.Context, appt *Appointment) error

	// GetAppointment retrieves an appointment by ID.
	GetAppointment(ctx context.Context, id string) (*Appointment, error)

	// HasAppointmentConflict reports whether any pending or accepted
	// appointment involving either user overlaps [start, end). Adjacent
	// intervals do not conflict.
	HasAppointmentConflict(ctx context.Context, userA, userB string, start, end time.Time) (bool, error)

	// UpdateAppointmentStatus transitions an appointment to a new status only
	// if its current status is one of from. Returns ErrStaleTransition if the
	// row matched none of them.
	UpdateAppointmentStatus(ctx context.Context, id string, from []AppointmentStatus, to AppointmentStatus) error

	// DeleteAppointment deletes an appointment.
	DeleteAppointment(ctx context.Context, id string) error

	// ListAppointments lists appointments where the user is sender or
	// receiver, newest first.
	ListAppointments(ctx context.Context, userID string) ([]*Appointment, error)
}

// ChatStore handles chat room and message persistence. Rooms are provisioned
// through ConnectionStore.AcceptConnection; this interface covers reads and
// message writes.
type ChatStore interface {
	// GetChatRoom retrieves a chat room by ID.
	GetChatRoom(ctx context.Context, id string) (*ChatRoom, error)

	// IsParticipant checks whether a user belongs to a chat room.
	IsParticipant(ctx context.Context, userID, roomID string) (bool, error)

	// ListParticipants lists the user IDs attached to a chat room.
	ListParticipants(ctx context.Context, roomID string) ([]string, error)

	// SaveMessage persists a message and fills in its ID and timestamp.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages retrieves messages from a room, oldest first. If beforeID
	// is provided only messages older than that message are returned.
	ListMessages(ctx context.Context, roomID string, limit int, beforeID *string) ([]*Message, error)
}

// ReportStore handles report persistence.
type ReportStore interface {
	// CreateReport persists a new report with processing status.
	CreateReport(ctx context.Context, reporterID, targetID, reason string) (*Report, error)

	// GetReport retrieves a report by ID.
	GetReport(ctx context.Context, id string) (*Report, error)

	// ListReports lists all reports, newest first (admin use).
	ListReports(ctx context.Context) ([]*Report, error)

	// ListReportsForTarget lists reports filed against a user, optionally
	// filtered by status.
	ListReportsForTarget(ctx context.Context, targetID string, status *ReportStatus) ([]*Report, error)

	// UpdateReportStatus sets a report's status.
	UpdateReportStatus(ctx context.Context, id string, status ReportStatus) error

	// DeleteReport deletes a report.
	DeleteReport(ctx context.Context, id string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ConnectionStore
	AppointmentStore
	ChatStore
	ReportStore

	// Close closes the underlying database connection.
	Close() error
}
