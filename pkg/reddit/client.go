// Package reddit searches subreddits for posts and replies to them.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"time"

	goreddit "github.com/vartanbeno/go-reddit/v2/reddit"

	"github.com/jordanlanch/beautyos/pkg/logger"
)

const maxBodyLen = 2000

// ErrNotConfigured is returned by Reply when no posting credentials are set.
var ErrNotConfigured = errors.New("reddit credentials not configured for posting")

// Post is a submission returned by a search.
type Post struct {
	ID          string    `json:"id"`
	FullID      string    `json:"fullname"` // t3_abc123
	Title       string    `json:"title"`
	Body        string    `json:"selftext"`
	URL         string    `json:"url"`
	Subreddit   string    `json:"subreddit"`
	Author      string    `json:"author"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	CreatedAt   time.Time `json:"created_at"`
}

// Searcher finds posts matching keywords across subreddits.
type Searcher interface {
	SearchPosts(ctx context.Context, subreddits, keywords []string, limit int, timeFilter string) ([]Post, error)
}

// Poster replies to a submission.
type Poster interface {
	Reply(ctx context.Context, fullID, text string) (string, error)
}

// Credentials for the Reddit API. ID and Secret enable search, Username and
// Password additionally enable posting.
type Credentials struct {
	ID        string
	Secret    string
	Username  string
	Password  string
	UserAgent string
}

type searchFunc func(ctx context.Context, query, subreddit string, limit int, timeFilter string) ([]*goreddit.Post, error)
type replyFunc func(ctx context.Context, fullID, text string) (string, error)

// Client implements Searcher and Poster on go-reddit.
type Client struct {
	search searchFunc
	reply  replyFunc
	logger logger.Logger
}

// NewClient builds a client. Without a client ID searches return nothing.
func NewClient(creds Credentials, log logger.Logger) (*Client, error) {
	c := &Client{logger: log.With("component", "reddit")}
	if creds.ID == "" {
		return c, nil
	}

	opts := []goreddit.Opt{goreddit.WithUserAgent(creds.UserAgent)}

	var (
		rc  *goreddit.Client
		err error
	)
	if creds.Username == "" || creds.Password == "" {
		rc, err = goreddit.NewReadonlyClient(opts...)
	} else {
		rc, err = goreddit.NewClient(goreddit.Credentials{
			ID:       creds.ID,
			Secret:   creds.Secret,
			Username: creds.Username,
			Password: creds.Password,
		}, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create reddit client: %w", err)
	}

	c.search = func(ctx context.Context, query, subreddit string, limit int, timeFilter string) ([]*goreddit.Post, error) {
		posts, _, err := rc.Subreddit.SearchPosts(ctx, query, subreddit, &goreddit.ListPostSearchOptions{
			ListPostOptions: goreddit.ListPostOptions{
				ListOptions: goreddit.ListOptions{Limit: limit},
				Time:        timeFilter,
			},
		})
		return posts, err
	}

	if creds.Username != "" && creds.Password != "" {
		c.reply = func(ctx context.Context, fullID, text string) (string, error) {
			comment, _, err := rc.Comment.Submit(ctx, fullID, text)
			if err != nil {
				return "", err
			}
			return comment.ID, nil
		}
	}

	return c, nil
}

// SearchPosts runs every keyword against every subreddit and returns the
// posts deduplicated by ID. A failing subreddit is logged and skipped.
func (c *Client) SearchPosts(ctx context.Context, subreddits, keywords []string, limit int, timeFilter string) ([]Post, error) {
	if c.search == nil {
		c.logger.Warn("reddit not configured, skipping search")
		return []Post{}, nil
	}
	if timeFilter == "" {
		timeFilter = "week"
	}

	seen := make(map[string]struct{})
	results := make([]Post, 0)

	for _, sub := range subreddits {
		for _, keyword := range keywords {
			if err := ctx.Err(); err != nil {
				return results, err
			}

			posts, err := c.search(ctx, keyword, sub, limit, timeFilter)
			if err != nil {
				c.logger.Error("subreddit search failed", "subreddit", sub, "keyword", keyword, "error", err)
				break
			}

			for _, p := range posts {
				if _, ok := seen[p.ID]; ok {
					continue
				}
				seen[p.ID] = struct{}{}
				results = append(results, toPost(p, sub))
			}
		}
	}

	return results, nil
}

// Reply comments on the submission and returns the new comment ID.
func (c *Client) Reply(ctx context.Context, fullID, text string) (string, error) {
	if c.reply == nil {
		return "", ErrNotConfigured
	}
	id, err := c.reply(ctx, fullID, text)
	if err != nil {
		return "", fmt.Errorf("failed to post reddit reply: %w", err)
	}
	return id, nil
}

func toPost(p *goreddit.Post, subreddit string) Post {
	body := p.Body
	if r := []rune(body); len(r) > maxBodyLen {
		body = string(r[:maxBodyLen])
	}
	author := p.Author
	if author == "" {
		author = "[deleted]"
	}

	post := Post{
		ID:          p.ID,
		FullID:      p.FullID,
		Title:       p.Title,
		Body:        body,
		URL:         "https://reddit.com" + p.Permalink,
		Subreddit:   subreddit,
		Author:      author,
		Score:       p.Score,
		NumComments: p.NumberOfComments,
	}
	if p.Created != nil {
		post.CreatedAt = p.Created.Time.UTC()
	}
	return post
}
