// Package scjm wires the control profile editor's API together: the
// option catalog, the profile store, actionmaps import and export, and
// curve previews.
package scjm

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/scjoymapper/scjoymapper/scjm/actionmaps"
	"github.com/scjoymapper/scjoymapper/scjm/common"
	"github.com/scjoymapper/scjoymapper/scjm/controls"
	"github.com/scjoymapper/scjoymapper/scjm/preview"
	"github.com/scjoymapper/scjoymapper/scjm/profiles"
)

var config *common.Config

// GetServer builds the API router and returns it with the address to
// listen on
func GetServer(debugMode bool) (*gin.Engine, string) {
	log := common.NewLog()
	// Load the configuration
	if err := common.LoadYaml("config/config.yaml", &config); err != nil {
		log.Fatal("config/config.yaml load failed. %v", err)
	}
	// Load the option catalog
	if err := common.LoadYaml(config.OptionsFile, &config.Catalog); err != nil {
		log.Fatal("option catalog %s load failed. %v", config.OptionsFile, err)
	}
	if config.VerboseOutput {
		log.Dbg(common.YamlObjectAsString(config, "Config"))
	}
	store, err := profiles.NewStore(config.ProfilesDir)
	if err != nil {
		log.Fatal("profile store %s init failed. %v", config.ProfilesDir, err)
	}
	if file := os.Getenv("ACTIONMAPS_FILE"); file != "" {
		config.ActionmapsFile = file
	}
	knownOptions := config.Catalog.KnownNames()

	if !debugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	if debugMode {
		pprof.Register(router)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    config.AppName,
			"version": config.Version,
		})
	})
	router.GET("/api/catalog", func(c *gin.Context) {
		c.JSON(http.StatusOK, config.Catalog)
	})

	router.GET("/api/profiles", func(c *gin.Context) {
		handleListProfiles(c, store)
	})
	router.POST("/api/profiles", func(c *gin.Context) {
		handleSaveProfile(c, store, knownOptions)
	})
	router.GET("/api/profiles/:name", func(c *gin.Context) {
		handleLoadProfile(c, store)
	})
	router.DELETE("/api/profiles/:name", func(c *gin.Context) {
		handleDeleteProfile(c, store)
	})

	router.POST("/api/actionmaps/parse", handleParseActionmaps)
	router.POST("/api/actionmaps/apply", func(c *gin.Context) {
		handleApplyActionmaps(c, store)
	})
	router.POST("/api/actionmaps/write", func(c *gin.Context) {
		handleWriteActionmaps(c, store)
	})

	router.POST("/api/preview", handlePreview)

	// Run on port 8080 unless PORT variable specified
	port := os.Getenv("PORT")
	if len(port) == 0 {
		port = "8080"
	}
	return router, fmt.Sprintf(":%s", port)
}

func handleListProfiles(c *gin.Context, store *profiles.Store) {
	names, err := store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": names})
}

func handleSaveProfile(c *gin.Context, store *profiles.Store,
	knownOptions common.Set) {
	log := common.NewLog()
	var input controls.SaveControlsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest,
			gin.H{"error": fmt.Sprintf("invalid save request. %v", err)})
		return
	}
	if profiles.SanitizeName(input.ProfileName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile name required"})
		return
	}
	file := controls.FromSaveInput(input)
	for _, name := range unknownOptionNames(file, knownOptions) {
		log.Msg("option %s is not in the catalog", name)
	}
	if err := store.Save(file); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile_name":  file.ProfileName,
		"last_modified": file.LastModified,
		"logs":          log.Entries,
	})
}

func handleLoadProfile(c *gin.Context, store *profiles.Store) {
	file, err := store.Load(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, controls.ToLoadOutput(file))
}

func handleDeleteProfile(c *gin.Context, store *profiles.Store) {
	name := c.Param("name")
	if err := store.Delete(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name})
}

func handleParseActionmaps(c *gin.Context) {
	log := common.NewLog()
	data := loadFormFile(c, log)
	if data == nil {
		c.JSON(http.StatusBadRequest,
			gin.H{"error": "no actionmaps file in request", "logs": log.Entries})
		return
	}
	devices, err := actionmaps.ParseOptions(data)
	if err != nil {
		c.JSON(http.StatusBadRequest,
			gin.H{"error": err.Error(), "logs": log.Entries})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices, "logs": log.Entries})
}

func handleApplyActionmaps(c *gin.Context, store *profiles.Store) {
	log := common.NewLog()
	file, err := store.Load(c.PostForm("profile"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	doc := loadFormFile(c, log)
	if doc == nil {
		c.JSON(http.StatusBadRequest,
			gin.H{"error": "no actionmaps file in request", "logs": log.Entries})
		return
	}
	updated, err := actionmaps.ApplyControlOptions(doc, controls.ToActionmaps(file))
	if err != nil {
		c.JSON(http.StatusBadRequest,
			gin.H{"error": err.Error(), "logs": log.Entries})
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", updated)
}

// handleWriteActionmaps applies a profile to the game's on disk
// actionmaps file, backing the previous version up first.
func handleWriteActionmaps(c *gin.Context, store *profiles.Store) {
	log := common.NewLog()
	if config.ActionmapsFile == "" {
		c.JSON(http.StatusBadRequest,
			gin.H{"error": "no actionmaps file configured"})
		return
	}
	file, err := store.Load(c.PostForm("profile"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	doc, err := os.ReadFile(config.ActionmapsFile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf(
			"failed to read %s. %v", config.ActionmapsFile, err)})
		return
	}
	updated, err := actionmaps.ApplyControlOptions(doc, controls.ToActionmaps(file))
	if err != nil {
		c.JSON(http.StatusBadRequest,
			gin.H{"error": err.Error(), "logs": log.Entries})
		return
	}
	backup, err := profiles.WriteFileWithBackup(config.ActionmapsFile, updated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if backup != "" {
		log.Msg("previous actionmaps backed up to %s", backup)
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"backup_path": backup,
		"message": fmt.Sprintf("profile %q applied to %s",
			file.ProfileName, config.ActionmapsFile),
		"logs": log.Entries,
	})
}

func handlePreview(c *gin.Context) {
	log := common.NewLog()
	var input controls.ControlOptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest,
			gin.H{"error": fmt.Sprintf("invalid preview request. %v", err)})
		return
	}
	label := ""
	if option := c.Query("option"); option != "" {
		label = config.Catalog.Label(option)
	}
	dc := preview.Render(controls.OptionFromInput(input), label,
		&config.Preview, log)
	if c.Query("format") == "jpg" {
		imgBytes, err := preview.EncodeJPG(dc, config.Preview.JpgQuality)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "image/jpeg", imgBytes.Bytes())
		return
	}
	imgBytes, err := preview.EncodePNG(dc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", imgBytes.Bytes())
}

// loadFormFile returns the contents of the request's "file" form field,
// or nil with the reason logged
func loadFormFile(c *gin.Context, log *common.Logger) []byte {
	form, err := c.MultipartForm()
	if err != nil {
		log.Err("Error getting MultipartForm - %s", err)
		return nil
	}
	inputFiles := form.File["file"]
	if len(inputFiles) == 0 {
		log.Err("No file field in form")
		return nil
	}
	multipart, err := inputFiles[0].Open()
	if err != nil {
		log.Err("Error opening multipart file %s - %s",
			inputFiles[0].Filename, err)
		return nil
	}
	defer multipart.Close()
	contents, err := io.ReadAll(multipart)
	if err != nil {
		log.Err("Error reading multipart file %s - %s",
			inputFiles[0].Filename, err)
		return nil
	}
	return contents
}

// unknownOptionNames lists option names in the file that the catalog
// does not know, sorted
func unknownOptionNames(file *controls.ControlsFile,
	known common.Set) []string {
	unknown := make(common.Set)
	collect := func(device *controls.DeviceInstanceSettings) {
		if device == nil {
			return
		}
		for name := range device.Options {
			if !known[name] {
				unknown[name] = true
			}
		}
	}
	collect(file.Devices.Keyboard)
	collect(file.Devices.Gamepad)
	for _, device := range file.Devices.Joystick {
		instance := device
		collect(&instance)
	}
	names := unknown.Keys()
	sort.Strings(names)
	return names
}
