package sse

import (
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type Server struct {
	mux                 sync.RWMutex
	NewSessionHandler   func(id string, session *Session)
	CloseSessionHandler func(id string, session *Session)
	sessions            map[string]*Session
	logger              zerolog.Logger
}

func New(logger zerolog.Logger) *Server {
	return &Server{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

func (s *Server) HandleFunc() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id, err := gonanoid.New()
		if err != nil {
			http.Error(w, "could not open stream", http.StatusInternalServerError)
			return
		}

		session := newSession(id, s.logger)

		s.mux.Lock()
		s.sessions[id] = session
		s.mux.Unlock()

		if s.NewSessionHandler != nil {
			s.NewSessionHandler(id, session)
		}

		// the client learns its connection id from the first event
		session.Send(&Event{
			Topic: SYSSessionTopic,
			Name:  SYSSessionCreated,
			Data:  id,
		})

		session.listen(w, r)

		s.mux.Lock()
		delete(s.sessions, id)
		s.mux.Unlock()

		if s.CloseSessionHandler != nil {
			s.CloseSessionHandler(id, session)
		}
	}
}

func (s *Server) Get(id string) (*Session, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	session, ok := s.sessions[id]

	return session, ok
}
