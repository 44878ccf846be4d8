package server

import (
	"net/http"

	"birthday-app/internal/websocket"
)

type messageRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusOK, s.board.List())
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	msg, err := s.board.PostMessage(r.Context(), req.Author, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	Write(w, http.StatusCreated, msg)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.board.DeleteMessage(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllMessages(w http.ResponseWriter, r *http.Request) {
	if err := s.board.DeleteAllMessages(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHeartBurst(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	heart, err := s.board.HeartBurst(s.hearts, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.m.HeartBurst()
	s.hub.Publish(websocket.MsgHeartBurst, "", heart)
	Write(w, http.StatusCreated, heart)
}
