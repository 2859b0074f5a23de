package syncer

import (
	"context"
	"fmt"

	"github.com/minios-linux/txsync/transifex"
)

// ResolveContext resolves the organization and project ids. With an
// organization slug the organization id is derived from it directly;
// otherwise the first organization visible to the token is used. The
// project is matched by exact name.
func ResolveContext(ctx context.Context, svc Service, projectName, orgSlug string) (orgID, projectID string, err error) {
	if orgSlug != "" {
		orgID = transifex.OrganizationID(orgSlug)
	} else {
		orgs, err := svc.ListOrganizations(ctx)
		if err != nil {
			return "", "", fmt.Errorf("listing organizations: %w", err)
		}
		if len(orgs) == 0 {
			return "", "", fmt.Errorf("no organizations available for this token: %w", transifex.ErrNotFound)
		}
		orgID = orgs[0].ID
	}

	projects, err := svc.ListProjects(ctx, orgID, projectName)
	if err != nil {
		return "", "", fmt.Errorf("listing projects: %w", err)
	}
	for _, p := range projects {
		if p.Name == projectName {
			return orgID, p.ID, nil
		}
	}
	return "", "", fmt.Errorf("project %q in organization %q: %w", projectName, orgID, transifex.ErrNotFound)
}

// FindResourceID looks up a resource of a project by slug. ok is false
// when there is none; nothing is created.
func FindResourceID(ctx context.Context, svc Service, projectID, slug string) (id string, ok bool, err error) {
	resources, err := svc.ListResources(ctx, projectID)
	if err != nil {
		return "", false, fmt.Errorf("listing resources: %w", err)
	}
	for _, r := range resources {
		if r.Slug == slug {
			return r.ID, true, nil
		}
	}
	return "", false, nil
}

// EnsureResource returns the id of the resource with the given slug,
// creating it as an Android resource if the project has none. The
// lookup always runs first, so repeated calls never create duplicates.
func EnsureResource(ctx context.Context, svc Service, projectID, slug string) (string, error) {
	id, ok, err := FindResourceID(ctx, svc, projectID, slug)
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}

	created, err := svc.CreateResource(ctx, projectID, slug, transifex.AndroidFormat)
	if err != nil {
		return "", fmt.Errorf("creating resource %q: %w", slug, err)
	}
	return created.ID, nil
}

// DeleteResource deletes a resolved resource.
func DeleteResource(ctx context.Context, svc Service, resourceID string) error {
	if err := svc.DeleteResource(ctx, resourceID); err != nil {
		return fmt.Errorf("deleting resource %s: %w", resourceID, err)
	}
	return nil
}
