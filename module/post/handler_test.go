package post

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"PSocial/global"
	chatsvc "PSocial/module/chat/service"
	"PSocial/module/post/service"
	"PSocial/module/post/store"
	usermodel "PSocial/module/user/model"
	"PSocial/service/chat"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUsers struct {
	mu        sync.Mutex
	bookmarks map[primitive.ObjectID][]primitive.ObjectID
	removed   []primitive.ObjectID
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{bookmarks: make(map[primitive.ObjectID][]primitive.ObjectID)}
}

func (*fakeUsers) DisplayInfo(_ context.Context, id string) usermodel.DisplayInfo {
	return usermodel.DisplayInfo{ID: id, Username: "user-" + id[len(id)-4:], ProfilePicture: "pic"}
}
func (*fakeUsers) AddPost(context.Context, primitive.ObjectID, primitive.ObjectID) error { return nil }

func (f *fakeUsers) RemovePost(_ context.Context, _, postID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, postID)
	return nil
}

func (f *fakeUsers) ToggleBookmark(_ context.Context, id, postID primitive.ObjectID) (bool, []primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur := f.bookmarks[id]
	for i, b := range cur {
		if b == postID {
			f.bookmarks[id] = append(cur[:i:i], cur[i+1:]...)
			return false, append([]primitive.ObjectID{}, f.bookmarks[id]...), nil
		}
	}
	f.bookmarks[id] = append(cur, postID)
	return true, append([]primitive.ObjectID{}, f.bookmarks[id]...), nil
}

type noteConn struct {
	mu sync.Mutex
	ev []chat.Event
}

func (c *noteConn) ID() string { return "n" }
func (c *noteConn) Push(ev chat.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ev = append(c.ev, ev)
	return true
}
func (c *noteConn) PushPresence([]string) {}

func (c *noteConn) notifications() []chatsvc.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []chatsvc.Notification
	for _, e := range c.ev {
		if e.Name == chat.EventNotification {
			out = append(out, e.Data.(chatsvc.Notification))
		}
	}
	return out
}

var (
	owner = primitive.NewObjectID().Hex()
	fan   = primitive.NewObjectID().Hex()
)

func setup(t *testing.T) (*gin.Engine, *noteConn) {
	r, oc, _ := setupWithUsers(t)
	return r, oc
}

func setupWithUsers(t *testing.T) (*gin.Engine, *noteConn, *fakeUsers) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := chat.NewRegistry()
	oc := &noteConn{}
	reg.Register(owner, oc)

	users := newFakeUsers()
	svc := service.NewService(store.NewMemRepo(), users, chatsvc.NewNotifier(reg, nil))
	h := NewHandler(svc)
	r := gin.New()
	auth := func(c *gin.Context) {
		if u := c.GetHeader("X-User"); u != "" {
			global.SetSession(c, u)
		}
	}
	r.POST("/post/addpost", auth, h.AddPost)
	r.GET("/post/all", auth, h.GetAll)
	r.GET("/post/:id/like", auth, h.Like)
	r.GET("/post/:id/dislike", auth, h.Dislike)
	r.GET("/post/userpost/all", auth, h.GetUserPosts)
	r.POST("/post/:id/comment", auth, h.AddComment)
	r.POST("/post/:id/comment/all", auth, h.GetComments)
	r.DELETE("/post/delete/:id", auth, h.Delete)
	r.GET("/post/:id/bookmark", auth, h.Bookmark)
	return r, oc, users
}

func call(r http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func addPost(t *testing.T, r http.Handler, caption string) string {
	t.Helper()
	return addPostAs(t, r, owner, caption)
}

func addPostAs(t *testing.T, r http.Handler, author, caption string) string {
	t.Helper()
	w := call(r, http.MethodPost, "/post/addpost", author, `{"caption":"`+caption+`","image":"https://img.example/1.jpg"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		Post struct {
			ID string `json:"_id"`
		} `json:"post"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Post.ID
}

// Another user likes the owner's post; the owner is online.
func TestLikeNotifiesOwner(t *testing.T) {
	r, oc := setup(t)
	id := addPost(t, r, "sunset")

	w := call(r, http.MethodGet, "/post/"+id+"/like", fan, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Post liked!"}`, w.Body.String())

	notes := oc.notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, chatsvc.KindLike, notes[0].Type)
	assert.Equal(t, fan, notes[0].UserID)
	assert.Equal(t, id, notes[0].PostID)
	assert.Equal(t, notes[0].UserDetails.Username+" liked your post", notes[0].Message)

	w = call(r, http.MethodGet, "/post/"+id+"/dislike", fan, "")
	require.Equal(t, http.StatusOK, w.Code)
	notes = oc.notifications()
	require.Len(t, notes, 2)
	assert.Equal(t, chatsvc.KindDislike, notes[1].Type)
	assert.Contains(t, notes[1].Message, "disliked your post")
}

func TestOwnLikeIsSilent(t *testing.T) {
	r, oc := setup(t)
	id := addPost(t, r, "selfie")

	w := call(r, http.MethodGet, "/post/"+id+"/like", owner, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, oc.notifications())
}

func TestLikeIsSetSemantics(t *testing.T) {
	r, _ := setup(t)
	id := addPost(t, r, "x")
	call(r, http.MethodGet, "/post/"+id+"/like", fan, "")
	call(r, http.MethodGet, "/post/"+id+"/like", fan, "")

	w := call(r, http.MethodGet, "/post/all", fan, "")
	var body struct {
		Posts []struct {
			Likes []string `json:"likes"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Posts, 1)
	assert.Equal(t, []string{fan}, body.Posts[0].Likes)

	call(r, http.MethodGet, "/post/"+id+"/dislike", fan, "")
	w = call(r, http.MethodGet, "/post/all", fan, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Posts[0].Likes)
}

func TestListNewestFirst(t *testing.T) {
	r, _ := setup(t)
	first := addPost(t, r, "first")
	second := addPost(t, r, "second")

	w := call(r, http.MethodGet, "/post/all", fan, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Posts []struct {
			ID string `json:"_id"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Posts, 2)
	assert.Equal(t, second, body.Posts[0].ID)
	assert.Equal(t, first, body.Posts[1].ID)
}

func TestUnknownPostAndMissingImage(t *testing.T) {
	r, oc := setup(t)

	w := call(r, http.MethodGet, "/post/"+primitive.NewObjectID().Hex()+"/like", fan, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Post not found"}`, w.Body.String())

	w = call(r, http.MethodGet, "/post/not-an-id/dislike", fan, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, oc.notifications())

	w = call(r, http.MethodPost, "/post/addpost", owner, `{"caption":"no image"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Image is required"}`, w.Body.String())
}

func postIDs(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var body struct {
		Posts []struct {
			ID string `json:"_id"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	ids := make([]string, 0, len(body.Posts))
	for _, p := range body.Posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestUserPostsOnlyMine(t *testing.T) {
	r, _ := setup(t)
	mine1 := addPost(t, r, "a")
	addPostAs(t, r, fan, "theirs")
	mine2 := addPost(t, r, "b")

	w := call(r, http.MethodGet, "/post/userpost/all", owner, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{mine2, mine1}, postIDs(t, w))

	w = call(r, http.MethodGet, "/post/userpost/all", primitive.NewObjectID().Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"posts":[]}`, w.Body.String())
}

func TestCommentsAddAndList(t *testing.T) {
	r, _ := setup(t)
	id := addPost(t, r, "x")

	w := call(r, http.MethodPost, "/post/"+id+"/comment", fan, `{"text":"nice"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var added struct {
		Message string `json:"message"`
		Comment struct {
			Text   string `json:"text"`
			Author struct {
				ID       string `json:"_id"`
				Username string `json:"username"`
			} `json:"author"`
			Post string `json:"post"`
		} `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	assert.Equal(t, "Comment added!", added.Message)
	assert.Equal(t, "nice", added.Comment.Text)
	assert.Equal(t, fan, added.Comment.Author.ID)
	assert.NotEmpty(t, added.Comment.Author.Username)
	assert.Equal(t, id, added.Comment.Post)

	call(r, http.MethodPost, "/post/"+id+"/comment", owner, `{"text":"thanks"}`)

	w = call(r, http.MethodPost, "/post/"+id+"/comment/all", fan, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Comments []struct {
			Text string `json:"text"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Comments, 2)
	assert.Equal(t, "nice", list.Comments[0].Text)
	assert.Equal(t, "thanks", list.Comments[1].Text)

	// the post carries the comment ids
	w = call(r, http.MethodGet, "/post/all", fan, "")
	var all struct {
		Posts []struct {
			Comments []string `json:"comments"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all.Posts, 1)
	assert.Len(t, all.Posts[0].Comments, 2)
}

func TestCommentValidation(t *testing.T) {
	r, _ := setup(t)
	id := addPost(t, r, "x")

	w := call(r, http.MethodPost, "/post/"+id+"/comment", fan, `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Comment is required"}`, w.Body.String())

	w = call(r, http.MethodPost, "/post/"+primitive.NewObjectID().Hex()+"/comment", fan, `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodPost, "/post/"+primitive.NewObjectID().Hex()+"/comment/all", fan, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteOnlyByAuthor(t *testing.T) {
	r, _, users := setupWithUsers(t)
	id := addPost(t, r, "x")
	call(r, http.MethodPost, "/post/"+id+"/comment", fan, `{"text":"nice"}`)

	w := call(r, http.MethodDelete, "/post/delete/"+id, fan, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"You are not authorized to delete this post!"}`, w.Body.String())

	w = call(r, http.MethodDelete, "/post/delete/"+id, owner, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Post and associated comments deleted!"}`, w.Body.String())

	w = call(r, http.MethodGet, "/post/all", owner, "")
	assert.Empty(t, postIDs(t, w))
	w = call(r, http.MethodPost, "/post/"+id+"/comment/all", owner, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	users.mu.Lock()
	require.Len(t, users.removed, 1)
	assert.Equal(t, id, users.removed[0].Hex())
	users.mu.Unlock()

	w = call(r, http.MethodDelete, "/post/delete/"+id, owner, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Post not found!"}`, w.Body.String())
}

func TestBookmarkToggles(t *testing.T) {
	r, _ := setup(t)
	id := addPost(t, r, "x")

	type resp struct {
		Message   string   `json:"message"`
		Bookmarks []string `json:"bookmarks"`
	}
	var body resp
	w := call(r, http.MethodGet, "/post/"+id+"/bookmark", fan, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Post bookmarked!", body.Message)
	assert.Equal(t, []string{id}, body.Bookmarks)

	body = resp{}
	w = call(r, http.MethodGet, "/post/"+id+"/bookmark", fan, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Post removed from bookmarks!", body.Message)
	assert.Empty(t, body.Bookmarks)

	w = call(r, http.MethodGet, "/post/"+primitive.NewObjectID().Hex()+"/bookmark", fan, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Post not found!"}`, w.Body.String())
}
