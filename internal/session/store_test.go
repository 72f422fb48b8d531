package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_SetGetReset(t *testing.T) {
	var sess Session

	assert.Equal(t, "", sess.Get("name"))

	sess.Set("name", "Оля")
	sess.Set("age", "19")
	sess.State = State("registration:age")

	assert.Equal(t, "Оля", sess.Get("name"))
	assert.Equal(t, "19", sess.Get("age"))

	sess.Reset()
	assert.Equal(t, StateNone, sess.State)
	assert.Equal(t, "", sess.Get("name"))
	assert.Nil(t, sess.Data)
}

func TestStore_DoKeepsMutations(t *testing.T) {
	st := NewStore()

	st.Do(42, func(sess *Session) {
		sess.State = State("team:create_name")
		sess.Set("team_name", "Falcons")
	})

	st.Do(42, func(sess *Session) {
		assert.Equal(t, State("team:create_name"), sess.State)
		assert.Equal(t, "Falcons", sess.Get("team_name"))
	})
}

func TestStore_UsersAreIsolated(t *testing.T) {
	st := NewStore()

	st.Do(1, func(sess *Session) { sess.Set("k", "one") })
	st.Do(2, func(sess *Session) { sess.Set("k", "two") })

	one := st.Peek(1)
	two := st.Peek(2)
	assert.Equal(t, "one", one.Get("k"))
	assert.Equal(t, "two", two.Get("k"))
}

func TestStore_DoSerializesPerUser(t *testing.T) {
	st := NewStore()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			st.Do(7, func(sess *Session) {
				// Non-atomic read-modify-write; only mutual exclusion inside
				// Do keeps the counter exact.
				sess.Set("ticks", sess.Get("ticks")+"x")
			})
		}()
	}
	wg.Wait()

	sess := st.Peek(7)
	assert.Len(t, sess.Get("ticks"), workers)
}

func TestStore_PeekReturnsCopy(t *testing.T) {
	st := NewStore()
	st.Do(9, func(sess *Session) { sess.Set("k", "original") })

	copied := st.Peek(9)
	copied.Set("k", "mutated")
	copied.State = State("something")

	st.Do(9, func(sess *Session) {
		assert.Equal(t, "original", sess.Get("k"))
		assert.Equal(t, StateNone, sess.State)
	})
}
