package chat

import (
	"fmt"
	"time"

	"projchat_backend/internal/config"
	"projchat_backend/internal/logger"
	"projchat_backend/internal/mentions"
	modelChat "projchat_backend/internal/models/chat"
	"projchat_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// One sentence template per file action. The file slot is filled with a
// mention token the renderer expands into a link.
var actionTemplates = map[string]string{
	modelChat.ActionUpload:   "%s uploaded file %s (%s)",
	modelChat.ActionReplace:  "%s replaced file %s",
	modelChat.ActionDelete:   "%s deleted file %s",
	modelChat.ActionDownload: "%s downloaded file %s",
	modelChat.ActionSee:      "%s viewed file %s",
}

// AutoMessageService turns file-activity events into chat messages.
// The mode is fixed at startup: immediate emits one file_activity
// message per event, digest buffers and flushes a single system_digest
// per (user, day) group on the worker's schedule. The two paths never
// run together.
type AutoMessageService struct {
	Activities ActivityRepo
	Files      FileLookup
	Users      UserDirectory
	Store      *MessageService

	mode        config.AutoMessageMode
	dedupWindow time.Duration
	batchLimit  int
	now         func() time.Time
}

func NewAutoMessageService(activities ActivityRepo, files FileLookup, users UserDirectory, store *MessageService, cfg config.ChatConfig) *AutoMessageService {
	return &AutoMessageService{
		Activities:  activities,
		Files:       files,
		Users:       users,
		Store:       store,
		mode:        cfg.AutoMessageMode,
		dedupWindow: cfg.DedupWindow,
		batchLimit:  50,
		now:         time.Now,
	}
}

// Mode reports the configured emission mode.
func (s *AutoMessageService) Mode() config.AutoMessageMode {
	return s.mode
}

// HandleEvent records an inbound file event and, in immediate mode,
// emits its chat message right away. Fire-and-forget from the caller's
// point of view: per-event problems are logged and swallowed.
func (s *AutoMessageService) HandleEvent(ev *modelChat.FileActivity) error {
	if !modelChat.ValidAction(ev.Action) {
		return apperrors.ValidationError("Unknown file action")
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}

	if err := s.Activities.Create(ev); err != nil {
		return apperrors.StoreError(err)
	}

	if s.mode == config.AutoMessageImmediate {
		if err := s.emit(ev); err != nil {
			logger.Warn("auto-message emit failed", "activity_id", ev.ID, "error", err)
		}
	}
	return nil
}

// emit renders and appends one file_activity message for the event,
// unless deduplication or a vanished file suppresses it.
func (s *AutoMessageService) emit(ev *modelChat.FileActivity) error {
	skip, err := s.duplicate(ev)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	file, err := s.Files.GetByID(ev.FileID)
	if err != nil {
		return err
	}
	if file == nil {
		// File hard-deleted concurrently; nothing to announce.
		logger.Debug("file vanished before announcement", "file_id", ev.FileID)
		return nil
	}

	user, err := s.Users.GetByID(ev.UserID)
	if err != nil {
		return err
	}
	displayName := "Someone"
	if user != nil {
		displayName = user.DisplayName
	}

	body := renderActionSentence(ev.Action, displayName, file.ID, file.FileName, file.FileSize)
	metadata := datatypes.JSONMap{
		modelChat.MetaAction:   ev.Action,
		modelChat.MetaFileID:   ev.FileID,
		modelChat.MetaFileName: file.FileName,
		modelChat.MetaFileSize: file.FileSize,
	}

	userID := ev.UserID
	_, err = s.Store.Append(ev.ProjectID, &userID, modelChat.KindFileActivity, body, metadata)
	return err
}

// duplicate applies the noise filter: an identical (file, user, action)
// see/download within the dedup window suppresses the announcement.
func (s *AutoMessageService) duplicate(ev *modelChat.FileActivity) (bool, error) {
	if ev.Action != modelChat.ActionSee && ev.Action != modelChat.ActionDownload {
		return false, nil
	}
	since := ev.CreatedAt.Add(-s.dedupWindow)
	count, err := s.Activities.CountRecentSame(ev.FileID, ev.UserID, ev.Action, since, ev.ID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FlushDigests advances every pending project cursor, emitting one
// system_digest message per (user, day) group of buffered activity.
// Digest mode only; a no-op otherwise.
func (s *AutoMessageService) FlushDigests() error {
	if s.mode != config.AutoMessageDigest {
		return nil
	}

	projects, err := s.Activities.ProjectsWithPending()
	if err != nil {
		return err
	}

	for _, projectID := range projects {
		if err := s.flushProject(projectID); err != nil {
			logger.Warn("digest flush failed", "project_id", projectID, "error", err)
		}
	}
	return nil
}

type digestGroup struct {
	userID  uint64
	date    string
	counts  map[string]int
	actions []datatypes.JSONMap
}

func (s *AutoMessageService) flushProject(projectID uint64) error {
	cursor, err := s.Activities.GetCursor(projectID)
	if err != nil {
		return err
	}

	events, err := s.Activities.ListAfter(projectID, cursor, s.batchLimit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	groups := make(map[string]*digestGroup)
	var order []string
	last := cursor

	for i := range events {
		ev := &events[i]
		last = ev.ID

		skip, err := s.duplicate(ev)
		if err != nil {
			return err
		}
		if skip {
			continue
		}

		file, err := s.Files.GetByID(ev.FileID)
		if err != nil {
			return err
		}
		if file == nil {
			continue
		}

		key := fmt.Sprintf("%d:%s", ev.UserID, ev.CreatedAt.Format("2006-01-02"))
		g, ok := groups[key]
		if !ok {
			g = &digestGroup{
				userID: ev.UserID,
				date:   ev.CreatedAt.Format("2006-01-02"),
				counts: make(map[string]int),
			}
			groups[key] = g
			order = append(order, key)
		}
		g.counts[ev.Action]++
		g.actions = append(g.actions, datatypes.JSONMap{
			modelChat.MetaAction:   ev.Action,
			modelChat.MetaFileID:   ev.FileID,
			modelChat.MetaFileName: file.FileName,
		})
	}

	for _, key := range order {
		g := groups[key]
		if err := s.emitDigest(projectID, g); err != nil {
			return err
		}
	}

	return s.Activities.SaveCursor(projectID, last)
}

func (s *AutoMessageService) emitDigest(projectID uint64, g *digestGroup) error {
	user, err := s.Users.GetByID(g.userID)
	if err != nil {
		return err
	}
	displayName := "Someone"
	if user != nil {
		displayName = user.DisplayName
	}

	total := 0
	summary := make(map[string]interface{}, len(g.counts))
	for action, n := range g.counts {
		summary[action] = n
		total += n
	}

	body := fmt.Sprintf("%s performed %d file actions on %s", displayName, total, g.date)
	actions := make([]interface{}, len(g.actions))
	for i, a := range g.actions {
		actions[i] = map[string]interface{}(a)
	}

	userID := g.userID
	_, err = s.Store.Append(projectID, &userID, modelChat.KindSystemDigest, body, datatypes.JSONMap{
		modelChat.MetaSummary: summary,
		modelChat.MetaActions: actions,
	})
	return err
}

// renderActionSentence fills the per-action template.
func renderActionSentence(action, displayName string, fileID uint64, fileName string, fileSize int64) string {
	token := mentions.FileToken(fileID, fileName)

	if action == modelChat.ActionUpload {
		return fmt.Sprintf(actionTemplates[action], displayName, token, formatFileSize(fileSize))
	}
	return fmt.Sprintf(actionTemplates[action], displayName, token)
}

// formatFileSize renders a human-readable size.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
