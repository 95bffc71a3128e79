package api

import (
	"net/http"
	"strconv"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/bitswalk/kforge/src/kforge/kconfig"
	"github.com/bitswalk/kforge/src/kforge/kernel"
	"github.com/bitswalk/kforge/src/kforge/patches"
	"github.com/bitswalk/kforge/src/kforge/toolchain"
	"github.com/gin-gonic/gin"
)

// boolQuery parses an optional boolean query parameter
func boolQuery(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.ErrInvalidFieldValue.WithMessagef("%s must be a boolean, got %q", name, raw)
	}
	return v, nil
}

// handleListVersions lists kernel versions. The catalog never fails; when
// kernel.org is unreachable the origin field says where the list came from.
func (a *API) handleListVersions(c *gin.Context) {
	refresh, err := boolQuery(c, "refresh")
	if err != nil {
		respondError(c, err)
		return
	}
	if a.catalog == nil {
		respondError(c, errors.ErrInternal.WithMessage("Version catalog is not configured"))
		return
	}

	res := a.catalog.Resolve(c.Request.Context(), refresh)
	c.JSON(http.StatusOK, VersionListResponse{Result: res, Count: len(res.Versions)})
}

func (a *API) handleListPatches(c *gin.Context) {
	external, err := boolQuery(c, "external")
	if err != nil {
		respondError(c, err)
		return
	}

	version := kernel.Normalize(c.Param("version"))
	list := patches.PatchesFor(version)
	if external {
		list = patches.ExternalPatches(version)
	}
	c.JSON(http.StatusOK, PatchListResponse{Version: version, Patches: list, Count: len(list)})
}

func (a *API) handleListBloatCategories(c *gin.Context) {
	c.JSON(http.StatusOK, BloatCategoryListResponse{Categories: kconfig.Categories()})
}

func (a *API) handleDetectToolchain(c *gin.Context) {
	det := a.detector
	if det == nil {
		det = toolchain.NewDetector()
	}
	tc, err := det.Detect(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"toolchain":   tc,
		"description": tc.String(),
		"default_lto": tc.DefaultLTO(),
		"make":        toolchain.MakeVariables(tc.Kind),
		"deps":        toolchain.DepsFor(tc.Kind).All(),
	})
}
