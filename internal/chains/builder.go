package chains

import (
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/talentforge/cvtune/internal/export"
)

// defaultReplyWindow is the temporal fallback for exports without explicit
// reply references: an unlinked message joins the most recent chain if it
// arrives within this much of the chain's last activity.
const defaultReplyWindow = 15 * time.Minute

// Options configures chain building.
type Options struct {
	// ReplyWindow overrides defaultReplyWindow when positive.
	ReplyWindow time.Duration
	// LongestOnly keeps only the longest assistant message per chain, with
	// the user messages preceding it merged into one turn.
	LongestOnly bool
	// MinReviewLength drops chains whose total assistant text is shorter.
	// Zero disables the filter.
	MinReviewLength int
}

// Builder groups export messages into one chain per CV attachment.
type Builder struct {
	opts   Options
	logger *slog.Logger
}

func NewBuilder(opts Options, logger *slog.Logger) *Builder {
	if opts.ReplyWindow <= 0 {
		opts.ReplyWindow = defaultReplyWindow
	}
	return &Builder{opts: opts, logger: logger}
}

// Build produces one chain per retained attachment. files is the set of
// filenames actually present in the attachment directory; an attachment
// message whose file is missing from it is unreadable and ignored.
func (b *Builder) Build(msgs []export.Message, files map[string]bool) []Chain {
	byID := make(map[int64]export.Message, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
	}

	// Adjacency list over reply references: parent id -> child ids.
	children := make(map[int64][]int64)
	for _, m := range msgs {
		if m.ReplyTo != 0 {
			children[m.ReplyTo] = append(children[m.ReplyTo], m.ID)
		}
	}

	// Timestamp order drives both root discovery and the temporal fallback.
	ordered := make([]export.Message, len(msgs))
	copy(ordered, msgs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	type pending struct {
		root         export.Message
		members      []export.Message
		assigned     map[int64]bool
		lastActivity time.Time
	}

	var roots []*pending
	for _, m := range ordered {
		if !isCVAttachment(m, files) {
			continue
		}
		if reason := JunkReason(m.FileName); reason != "" {
			b.logger.Info("dropping junk attachment", "file", m.FileName, "pattern", reason)
			continue
		}

		p := &pending{
			root:         m,
			assigned:     map[int64]bool{m.ID: true},
			lastActivity: m.Timestamp,
		}
		for _, id := range bfsSubtree(m.ID, children) {
			child, ok := byID[id]
			if !ok {
				continue
			}
			p.members = append(p.members, child)
			p.assigned[id] = true
			if child.Timestamp.After(p.lastActivity) {
				p.lastActivity = child.Timestamp
			}
		}
		roots = append(roots, p)
	}

	claimed := make(map[int64]bool)
	for _, p := range roots {
		for id := range p.assigned {
			claimed[id] = true
		}
	}

	// Temporal fallback: unlinked messages join the most recent chain whose
	// activity they follow within the reply window.
	for _, m := range ordered {
		if claimed[m.ID] || m.ReplyTo != 0 || m.Text == "" || isCVAttachment(m, files) {
			continue
		}
		var best *pending
		for _, p := range roots {
			if m.Timestamp.Before(p.root.Timestamp) {
				continue
			}
			if m.Timestamp.Sub(p.lastActivity) > b.opts.ReplyWindow {
				continue
			}
			if best == nil || p.lastActivity.After(best.lastActivity) {
				best = p
			}
		}
		if best != nil {
			best.members = append(best.members, m)
			best.lastActivity = m.Timestamp
			claimed[m.ID] = true
		}
	}

	var out []Chain
	for _, p := range roots {
		sort.SliceStable(p.members, func(i, j int) bool {
			return p.members[i].Timestamp.Before(p.members[j].Timestamp)
		})

		var turns []Message
		for _, m := range p.members {
			if m.Text == "" {
				continue
			}
			turns = append(turns, Message{
				Role:    roleFor(m.SenderID, p.root.SenderID),
				Content: m.Text,
			})
		}

		if b.opts.LongestOnly {
			turns = KeepLongestAssistant(turns)
		}
		if b.opts.MinReviewLength > 0 && assistantTextLen(turns) < b.opts.MinReviewLength {
			b.logger.Info("dropping chain below minimum review length",
				"file", p.root.FileName,
				"assistant_chars", assistantTextLen(turns),
			)
			continue
		}
		if len(turns) == 0 {
			continue
		}

		out = append(out, Chain{
			DocID:       strconv.FormatInt(p.root.ID, 10),
			PDFFilename: p.root.FileName,
			Messages:    turns,
		})
	}

	b.logger.Info("chains built", "attachments", len(roots), "chains", len(out))
	return out
}

func isCVAttachment(m export.Message, files map[string]bool) bool {
	if m.FileName == "" || m.MimeType != "application/pdf" {
		return false
	}
	return files == nil || files[m.FileName]
}

// roleFor classifies a sender relative to the chain's root: the CV poster
// speaks as the user, reviewers as the assistant.
func roleFor(senderID, rootSenderID string) Role {
	if senderID == rootSenderID {
		return RoleUser
	}
	return RoleAssistant
}

// bfsSubtree collects all descendant message ids reachable from root
// through reply references.
func bfsSubtree(root int64, children map[int64][]int64) []int64 {
	visited := map[int64]bool{}
	queue := []int64{root}
	var out []int64
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

func assistantTextLen(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		if m.Role == RoleAssistant {
			total += len(m.Content)
		}
	}
	return total
}
