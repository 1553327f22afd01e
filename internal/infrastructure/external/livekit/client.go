package livekit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"
	livekit "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

// Client wraps the LiveKit room operations used by meetings
type Client interface {
	CreateRoom(ctx context.Context, name string, options *CreateRoomOptions) (*RoomInfo, error)
	GenerateToken(identity, roomName, participantName string, options *TokenOptions) (string, error)
	ListParticipants(ctx context.Context, roomName string) ([]*ParticipantInfo, error)
}

// CreateRoomOptions holds options for creating a room
type CreateRoomOptions struct {
	EmptyTimeout     int32 // seconds - auto-delete if no one joins
	DepartureTimeout int32 // seconds - auto-delete after last participant leaves
	Metadata         string
}

// TokenOptions holds options for generating access token
type TokenOptions struct {
	ValidFor       time.Duration
	CanPublish     bool
	CanSubscribe   bool
	CanPublishData bool
}

// DefaultTokenOptions are the grants handed to meeting participants
func DefaultTokenOptions() *TokenOptions {
	return &TokenOptions{
		ValidFor:       2 * time.Hour,
		CanPublish:     true,
		CanSubscribe:   true,
		CanPublishData: true,
	}
}

// RoomInfo holds room information
type RoomInfo struct {
	Name         string
	SID          string
	CreationTime time.Time
	Metadata     string
}

// ParticipantInfo holds participant information
type ParticipantInfo struct {
	SID      string
	Identity string
	Name     string
	IsAgent  bool
	JoinedAt time.Time
}

// realClient is the real LiveKit client implementation
type realClient struct {
	roomClient *lksdk.RoomServiceClient
	apiKey     string
	apiSecret  string
}

// NewClient creates a new LiveKit client
func NewClient(url, apiKey, apiSecret string, useMock bool) Client {
	if useMock {
		return &mockClient{
			apiKey:       apiKey,
			apiSecret:    apiSecret,
			rooms:        make(map[string]*RoomInfo),
			participants: make(map[string][]*ParticipantInfo),
		}
	}

	return &realClient{
		roomClient: lksdk.NewRoomServiceClient(url, apiKey, apiSecret),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
	}
}

// CreateRoom creates a room in LiveKit. Creating an existing room returns it unchanged.
func (c *realClient) CreateRoom(ctx context.Context, name string, options *CreateRoomOptions) (*RoomInfo, error) {
	if options == nil {
		options = &CreateRoomOptions{
			EmptyTimeout:     300, // 5 minutes
			DepartureTimeout: 30,
		}
	}

	room, err := c.roomClient.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:             name,
		EmptyTimeout:     uint32(options.EmptyTimeout),
		DepartureTimeout: uint32(options.DepartureTimeout),
		Metadata:         options.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return &RoomInfo{
		Name:         room.Name,
		SID:          room.Sid,
		CreationTime: time.Unix(room.CreationTime, 0),
		Metadata:     room.Metadata,
	}, nil
}

// GenerateToken generates an access token for joining a room
func (c *realClient) GenerateToken(identity, roomName, participantName string, options *TokenOptions) (string, error) {
	return signToken(c.apiKey, c.apiSecret, identity, roomName, participantName, options)
}

// ListParticipants lists all participants in a room
func (c *realClient) ListParticipants(ctx context.Context, roomName string) ([]*ParticipantInfo, error) {
	resp, err := c.roomClient.ListParticipants(ctx, &livekit.ListParticipantsRequest{
		Room: roomName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	participants := make([]*ParticipantInfo, 0, len(resp.Participants))
	for _, p := range resp.Participants {
		participants = append(participants, &ParticipantInfo{
			SID:      p.Sid,
			Identity: p.Identity,
			Name:     p.Name,
			IsAgent:  p.Kind == livekit.ParticipantInfo_AGENT,
			JoinedAt: time.Unix(p.JoinedAt, 0),
		})
	}

	return participants, nil
}

func signToken(apiKey, apiSecret, identity, roomName, participantName string, options *TokenOptions) (string, error) {
	if options == nil {
		options = DefaultTokenOptions()
	}

	at := auth.NewAccessToken(apiKey, apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin:       true,
		Room:           roomName,
		CanPublish:     &options.CanPublish,
		CanSubscribe:   &options.CanSubscribe,
		CanPublishData: &options.CanPublishData,
	}

	at.AddGrant(grant).
		SetIdentity(identity).
		SetName(participantName).
		SetValidFor(options.ValidFor)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return token, nil
}

// mockClient is a mock implementation for local development and tests
type mockClient struct {
	apiKey    string
	apiSecret string

	mu           sync.Mutex
	rooms        map[string]*RoomInfo
	participants map[string][]*ParticipantInfo
}

// CreateRoom (mock) remembers the room
func (m *mockClient) CreateRoom(ctx context.Context, name string, options *CreateRoomOptions) (*RoomInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room, ok := m.rooms[name]; ok {
		return room, nil
	}
	room := &RoomInfo{
		Name:         name,
		SID:          "RM_mock_" + uuid.New().String(),
		CreationTime: time.Now(),
	}
	if options != nil {
		room.Metadata = options.Metadata
	}
	m.rooms[name] = room
	return room, nil
}

// GenerateToken (mock) signs a real token with the configured credentials
func (m *mockClient) GenerateToken(identity, roomName, participantName string, options *TokenOptions) (string, error) {
	return signToken(m.apiKey, m.apiSecret, identity, roomName, participantName, options)
}

// ListParticipants (mock) returns the participants added with AddParticipant
func (m *mockClient) ListParticipants(ctx context.Context, roomName string) ([]*ParticipantInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	participants := make([]*ParticipantInfo, 0, len(m.participants[roomName]))
	participants = append(participants, m.participants[roomName]...)
	return participants, nil
}

// AddParticipant (mock) places a participant in a room
func (m *mockClient) AddParticipant(roomName string, p *ParticipantInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[roomName] = append(m.participants[roomName], p)
}
