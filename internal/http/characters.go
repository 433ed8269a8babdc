package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tabletop-companion/internal/domain"
	"tabletop-companion/internal/service"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("request body must be a JSON object")

// decodeCharacterInput keeps numbers as json.Number so integer checks see
// exactly what the client sent.
func decodeCharacterInput(c *gin.Context) (service.CharacterInput, error) {
	dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	dec.UseNumber()

	var input service.CharacterInput
	if err := dec.Decode(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if input == nil {
		return nil, errInvalidBody
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", errInvalidBody)
	}
	return input, nil
}

func flattenAll(characters []domain.Character) []map[string]any {
	out := make([]map[string]any, len(characters))
	for i := range characters {
		out[i] = characters[i].Flatten()
	}
	return out
}

func (h *Handler) createCharacter(c *gin.Context) {
	input, err := decodeCharacterInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, message("Invalid request body"))
		return
	}

	character, err := h.characters.Create(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, character.Flatten())
}

func (h *Handler) listCharacters(c *gin.Context) {
	characters, err := h.characters.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, flattenAll(characters))
}

func (h *Handler) getCharacter(c *gin.Context) {
	id, ok := characterID(c)
	if !ok {
		return
	}

	character, err := h.characters.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, character.Flatten())
}

func (h *Handler) updateCharacter(c *gin.Context) {
	id, ok := characterID(c)
	if !ok {
		return
	}

	input, err := decodeCharacterInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, message("Invalid request body"))
		return
	}

	character, err := h.characters.Update(c.Request.Context(), currentUserID(c), id, input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, character.Flatten())
}

func (h *Handler) deleteCharacter(c *gin.Context) {
	id, ok := characterID(c)
	if !ok {
		return
	}
	ownerID := currentUserID(c)

	if err := h.characters.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.writeError(c, err)
		return
	}

	var warnings []string
	if h.exporter != nil {
		purgeCtx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		if err := h.exporter.Purge(purgeCtx, ownerID, id); err != nil {
			h.entry(c).WithError(err).Warn("purge character exports")
			warnings = append(warnings, fmt.Sprintf("delete exports: %v", err))
		}
	}

	resp := gin.H{"message": "Character deleted successfully"}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportCharacter(c *gin.Context) {
	id, ok := characterID(c)
	if !ok {
		return
	}
	if h.exporter == nil {
		c.JSON(http.StatusServiceUnavailable, message("Export storage is not configured"))
		return
	}

	character, err := h.characters.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	export, err := h.exporter.Export(c.Request.Context(), character)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, export)
}

func (h *Handler) listExports(c *gin.Context) {
	id, ok := characterID(c)
	if !ok {
		return
	}
	if h.exporter == nil {
		c.JSON(http.StatusServiceUnavailable, message("Export storage is not configured"))
		return
	}

	ownerID := currentUserID(c)
	if _, err := h.characters.Get(c.Request.Context(), ownerID, id); err != nil {
		h.writeError(c, err)
		return
	}

	exports, err := h.exporter.List(c.Request.Context(), ownerID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, exports)
}
