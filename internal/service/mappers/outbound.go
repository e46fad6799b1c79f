package mappers

import (
	api "github.com/draftforge/draftforge/api/v1alpha1"
	"github.com/draftforge/draftforge/internal/compose"
	"github.com/draftforge/draftforge/internal/store/model"
)

func JobToApi(j model.Job) api.JobReply {
	reply := api.JobReply{
		ID:          j.ID.String(),
		Status:      j.Status,
		Progress:    j.Progress,
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		CompletedAt: j.CompletedAt,
	}

	if j.ResumableState != nil {
		reply.Sections = sectionStatesToApi(j.ResumableState.Data.Sections)
	}

	return reply
}

func JobListToApi(jobs []model.Job) api.JobListReply {
	list := api.JobListReply{Jobs: make([]api.JobReply, 0, len(jobs))}
	for _, j := range jobs {
		summary := JobToApi(j)
		// section detail is per-job, keep the listing light
		summary.Sections = nil
		list.Jobs = append(list.Jobs, summary)
	}
	return list
}

func sectionStatesToApi(sections []compose.SectionState) []api.SectionStateReply {
	out := make([]api.SectionStateReply, 0, len(sections))
	for _, s := range sections {
		reply := api.SectionStateReply{
			Key:         s.Key,
			Type:        s.Request.Type,
			Title:       s.Request.Title,
			MaterialIDs: s.Request.MaterialIDs,
			Status:      string(s.Status),
			Attempts:    s.Attempts,
			LastError:   s.LastError,
		}
		if s.DocumentID != nil {
			id := s.DocumentID.String()
			reply.DocumentID = &id
		}
		out = append(out, reply)
	}
	return out
}

func DocumentToApi(d model.Document) api.DocumentReply {
	reply := api.DocumentReply{
		ID:             d.ID.String(),
		Title:          d.Title,
		Status:         d.Status,
		CurrentVersion: d.CurrentVersion,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}

	if d.Content != nil {
		reply.Body = d.Content.Data.Body
		reply.SectionType = d.Content.Data.SectionType
		reply.MaterialIDs = d.Content.Data.MaterialIDs
		reply.WordCount = d.Content.Data.WordCount
	}

	return reply
}

func DocumentVersionToApi(v model.DocumentVersion) api.DocumentVersionReply {
	reply := api.DocumentVersionReply{
		DocumentID: v.DocumentID.String(),
		Version:    v.Version,
		Status:     v.Status,
		CreatedAt:  v.CreatedAt,
	}

	if v.Content != nil {
		reply.Body = v.Content.Data.Body
		reply.WordCount = v.Content.Data.WordCount
	}

	return reply
}

func DocumentVersionListToApi(versions []model.DocumentVersion) api.DocumentVersionListReply {
	list := api.DocumentVersionListReply{Versions: make([]api.DocumentVersionReply, 0, len(versions))}
	for _, v := range versions {
		list.Versions = append(list.Versions, DocumentVersionToApi(v))
	}
	return list
}

func MaterialToApi(m model.Material) api.MaterialReply {
	return api.MaterialReply{
		ID:        m.ID.String(),
		Name:      m.Name,
		Kind:      m.Kind,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

func MaterialListToApi(materials []model.Material) api.MaterialListReply {
	list := api.MaterialListReply{Materials: make([]api.MaterialReply, 0, len(materials))}
	for _, m := range materials {
		reply := MaterialToApi(m)
		reply.Body = ""
		list.Materials = append(list.Materials, reply)
	}
	return list
}
