package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quantdesk-lab/quantsim/internal/backtest"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type GenerateCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func TestGenerateCmdSuite(t *testing.T) {
	suite.Run(t, new(GenerateCmdTestSuite))
}

func (suite *GenerateCmdTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "generate-cmd-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir

	err = os.Chdir(tempDir)
	suite.Require().NoError(err)
}

func (suite *GenerateCmdTestSuite) TearDownTest() {
	err := os.RemoveAll(suite.tempDir)
	suite.Require().NoError(err)
}

func (suite *GenerateCmdTestSuite) TestSchemaGeneration() {
	main()

	schemaPath := filepath.Join(suite.tempDir, "config", "backtest-engine-config.json")
	schemaContent, err := os.ReadFile(schemaPath)
	suite.Require().NoError(err)
	suite.NotEmpty(schemaContent)
	suite.Contains(string(schemaContent), "initial_capital")
}

func (suite *GenerateCmdTestSuite) TestSampleConfigGeneration() {
	main()

	sampleConfigPath := filepath.Join(suite.tempDir, "config", "backtest-engine-config.yaml")
	content, err := os.ReadFile(sampleConfigPath)
	suite.Require().NoError(err)
	suite.Contains(string(content), "# yaml-language-server: $schema=backtest-engine-config.json")

	// The generated sample must parse back into a valid config.
	var config backtest.Config
	suite.Require().NoError(yaml.Unmarshal(content, &config))
	suite.Require().NoError(config.Validate())
	suite.Equal(backtest.DefaultConfig().InitialCapital, config.InitialCapital)
}
