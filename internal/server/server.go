package server

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-jwt/jwt/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/sakshamg567/hangman/internal/auth"
	"github.com/sakshamg567/hangman/internal/render"
	"github.com/sakshamg567/hangman/internal/room"
	"github.com/sakshamg567/hangman/internal/store"
	"github.com/sakshamg567/hangman/logger"
	"github.com/sakshamg567/hangman/pkg/utils"
)

const (
	maxNameLen  = 24
	defaultName = "Player"
	recentLimit = 10
	qrSize      = 256
)

type Options struct {
	Rooms     *room.RoomManager
	Issuer    *auth.Issuer
	Store     store.Store
	PublicURL string
}

type Server struct {
	app       *fiber.App
	rooms     *room.RoomManager
	issuer    *auth.Issuer
	store     store.Store
	publicURL string
}

func New(opts Options) *Server {
	s := &Server{
		app:       fiber.New(fiber.Config{DisableStartupMessage: true}),
		rooms:     opts.Rooms,
		issuer:    opts.Issuer,
		store:     opts.Store,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
	}
	s.routes()
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	logger.Info("listening on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(cors.New())

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	s.app.Get("/ws/:roomId",
		jwtware.New(jwtware.Config{
			SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: s.issuer.Secret()},
			TokenLookup: "query:token",
			ContextKey:  "user",
			Claims:      &auth.Claims{},
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or missing token"})
			},
		}),
		s.requireRoomClaims,
		websocket.New(s.handleWS),
	)

	s.app.Post("/room/create", s.createRoom)
	s.app.Post("/room/:id/join", s.joinRoom)
	s.app.Get("/room/:id", s.getRoom)
	s.app.Get("/room/:id/figure.svg", s.figure)
	s.app.Get("/room/:id/qr.png", s.qr)

	s.app.Get("/api/rooms", func(c *fiber.Ctx) error {
		b, err := s.rooms.MarshalRooms()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "marshal error"})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(b)
	})
	s.app.Get("/api/stats", s.stats)

	s.app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
}

type joinRequest struct {
	Name string `json:"name"`
}

type joinResponse struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

func playerName(c *fiber.Ctx) string {
	var body joinRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			logger.Debug("join body: %v", err)
		}
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return defaultName
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}
	return name
}

func (s *Server) credentials(c *fiber.Ctx, roomID, playerID, name string) error {
	token, err := s.issuer.Issue(roomID, playerID, name)
	if err != nil {
		logger.Error("issue token for room %s: %v", roomID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not issue token"})
	}
	return c.JSON(joinResponse{RoomID: roomID, PlayerID: playerID, Token: token})
}

func (s *Server) createRoom(c *fiber.Ctx) error {
	name := playerName(c)
	playerID := utils.GenPlayerID()
	r := s.rooms.CreateRoom(playerID)
	return s.credentials(c, r.ID, playerID, name)
}

func (s *Server) joinRoom(c *fiber.Ctx) error {
	r, ok := s.rooms.GetRoom(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": room.ErrRoomNotFound.Error()})
	}
	return s.credentials(c, r.ID, utils.GenPlayerID(), playerName(c))
}

func (s *Server) getRoom(c *fiber.Ctx) error {
	r, ok := s.rooms.GetRoom(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": room.ErrRoomNotFound.Error()})
	}
	return c.JSON(r.Snapshot())
}

func (s *Server) figure(c *fiber.Ctx) error {
	r, ok := s.rooms.GetRoom(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": room.ErrRoomNotFound.Error()})
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.SendString(render.SVG(r.Snapshot().Game.Mistakes))
}

// JoinURL is the link encoded in a room's QR code.
func (s *Server) JoinURL(roomID string) string {
	return s.publicURL + "/?room=" + roomID
}

func (s *Server) qr(c *fiber.Ctx) error {
	r, ok := s.rooms.GetRoom(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": room.ErrRoomNotFound.Error()})
	}
	png, err := qrcode.Encode(s.JoinURL(r.ID), qrcode.Medium, qrSize)
	if err != nil {
		logger.Error("qr for room %s: %v", r.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "qr encode failed"})
	}
	c.Type("png")
	return c.Send(png)
}

func (s *Server) stats(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no results store"})
	}
	ctx := c.UserContext()
	st, err := s.store.Stats(ctx)
	if err != nil {
		logger.Error("stats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats unavailable"})
	}
	recent, err := s.store.Recent(ctx, recentLimit)
	if err != nil {
		logger.Error("recent results: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats unavailable"})
	}
	return c.JSON(fiber.Map{
		"stats":  st,
		"recent": recent,
		"rooms":  s.rooms.Count(),
	})
}

// requireRoomClaims runs after the jwt middleware and checks the token
// belongs to the room being joined.
func (s *Server) requireRoomClaims(c *fiber.Ctx) error {
	tok, _ := c.Locals("user").(*jwt.Token)
	claims, err := auth.FromToken(tok)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	if claims.Room != c.Params("roomId") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "token is for another room"})
	}
	if _, ok := s.rooms.GetRoom(claims.Room); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": room.ErrRoomNotFound.Error()})
	}
	c.Locals("claims", claims)
	return c.Next()
}

func (s *Server) handleWS(c *websocket.Conn) {
	claims, ok := c.Locals("claims").(*auth.Claims)
	if !ok {
		c.Close()
		return
	}

	r, ok := s.rooms.GetRoom(claims.Room)
	if !ok {
		c.Close()
		return
	}

	pl := room.NewPlayer(claims.PlayerID(), claims.Name, c)
	if err := r.Join(pl); err != nil {
		logger.Info("player %s could not join room %s: %v", pl.ID, r.ID, err)
		c.Close()
		return
	}
	pl.Serve(r)
}
