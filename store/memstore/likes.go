package memstore

import (
	"bytes"
	"context"
	"sort"

	"filmorate_social/model"
	"filmorate_social/service"

	"github.com/google/uuid"
)

func (s *Store) AddLike(_ context.Context, userID, filmID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	films := s.likes[userID]
	if films == nil {
		films = make(map[uuid.UUID]bool)
		s.likes[userID] = films
	}
	if films[filmID] {
		return false, nil
	}
	films[filmID] = true
	return true, nil
}

func (s *Store) RemoveLike(_ context.Context, userID, filmID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	films := s.likes[userID]
	if !films[filmID] {
		return false, nil
	}
	delete(films, filmID)
	return true, nil
}

func (s *Store) LikeCountByFilm(_ context.Context, filmIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[uuid.UUID]int64, len(filmIDs))
	for _, id := range filmIDs {
		counts[id] = 0
	}
	for _, films := range s.likes {
		for filmID := range films {
			if _, wanted := counts[filmID]; wanted {
				counts[filmID]++
			}
		}
	}
	return counts, nil
}

func (s *Store) OverlapCounts(_ context.Context, userID uuid.UUID) ([]model.TasteNeighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mine := s.likes[userID]
	neighbors := []model.TasteNeighbor{}
	if len(mine) == 0 {
		return neighbors, nil
	}

	for otherID, films := range s.likes {
		if otherID == userID {
			continue
		}
		var overlap int64
		for filmID := range films {
			if mine[filmID] {
				overlap++
			}
		}
		if overlap > 0 {
			neighbors = append(neighbors, model.TasteNeighbor{UserID: otherID, Overlap: overlap})
		}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Overlap != neighbors[j].Overlap {
			return neighbors[i].Overlap > neighbors[j].Overlap
		}
		return bytes.Compare(neighbors[i].UserID[:], neighbors[j].UserID[:]) < 0
	})
	return neighbors, nil
}

func (s *Store) FilmsLikedByAny(_ context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	filmIDs := []uuid.UUID{}
	for _, userID := range userIDs {
		for filmID := range s.likes[userID] {
			if !seen[filmID] {
				seen[filmID] = true
				filmIDs = append(filmIDs, filmID)
			}
		}
	}
	service.SortIDs(filmIDs)
	return filmIDs, nil
}

func (s *Store) FilmsLikedBy(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filmIDs := make([]uuid.UUID, 0, len(s.likes[userID]))
	for filmID := range s.likes[userID] {
		filmIDs = append(filmIDs, filmID)
	}
	service.SortIDs(filmIDs)
	return filmIDs, nil
}

// TopFilms 目录中所有匹配过滤条件的影片（含零赞）按点赞数排行
func (s *Store) TopFilms(_ context.Context, q model.PopularQuery) ([]model.FilmLikes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[uuid.UUID]int64)
	for _, films := range s.likes {
		for filmID := range films {
			counts[filmID]++
		}
	}

	ranked := []model.FilmLikes{}
	for id, film := range s.films {
		if q.Year != nil && film.ReleaseDate.Year() != *q.Year {
			continue
		}
		if q.GenreID != nil && !hasGenre(film, *q.GenreID) {
			continue
		}
		ranked = append(ranked, model.FilmLikes{FilmID: id, Likes: counts[id]})
	}

	service.RankByLikes(ranked)
	if q.Limit > 0 && len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	return ranked, nil
}

func hasGenre(film model.Film, genreID int) bool {
	for _, g := range film.Genres {
		if g.ID == genreID {
			return true
		}
	}
	return false
}
