/*
Copyright 2025 Ledgerline Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5080"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"LEDGERLINE_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"LEDGERLINE_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"LEDGERLINE_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"LEDGERLINE_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"LEDGERLINE_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"LEDGERLINE_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"LEDGERLINE_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"LEDGERLINE_REDIS_DNS"`
}

// StorageConfig points at the S3-compatible object store holding source
// statement PDFs and rendered workbooks.
type StorageConfig struct {
	Endpoint        string `json:"endpoint" envconfig:"LEDGERLINE_S3_ENDPOINT"`
	AccessKeyID     string `json:"access_key_id" envconfig:"LEDGERLINE_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secret_access_key" envconfig:"LEDGERLINE_S3_SECRET_ACCESS_KEY"`
	Region          string `json:"region" envconfig:"LEDGERLINE_S3_REGION"`
	Bucket          string `json:"bucket" envconfig:"LEDGERLINE_S3_BUCKET"`
}

type QueueConfig struct {
	ParseQueue     string `json:"parse_queue" envconfig:"LEDGERLINE_QUEUE_PARSE"`
	NumberOfQueues int    `json:"number_of_queues" envconfig:"LEDGERLINE_QUEUE_NUMBER_OF_QUEUES"`
	MonitoringPort string `json:"monitoring_port" envconfig:"LEDGERLINE_QUEUE_MONITORING_PORT"`
}

// WorkbookConfig controls the rendered underwriting workbook. Rendering is
// skipped (with a reported reason) when disabled or the template is missing.
type WorkbookConfig struct {
	Enabled      bool   `json:"enabled" envconfig:"LEDGERLINE_WORKBOOK_ENABLED"`
	TemplatePath string `json:"template_path" envconfig:"LEDGERLINE_WORKBOOK_TEMPLATE_PATH"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"LEDGERLINE_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Storage      StorageConfig    `json:"storage"`
	Queue        QueueConfig      `json:"queue"`
	Workbook     WorkbookConfig   `json:"workbook"`
	Notification Notification     `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("ledgerline", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called ledgerline.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Ledgerline Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Storage.Bucket == "" {
		cnf.Storage.Bucket = "statements"
	}

	if cnf.Queue.ParseQueue == "" {
		cnf.Queue.ParseQueue = "new:parse_statement"
	}
	if cnf.Queue.NumberOfQueues == 0 {
		cnf.Queue.NumberOfQueues = 4
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5081"
	}

	return nil
}

// WorkbookActive reports whether workbook rendering should run, with the
// operator-facing skip reason when it should not.
func (cnf *Configuration) WorkbookActive() (bool, string) {
	if !cnf.Workbook.Enabled {
		return false, "Workbook generation disabled by config"
	}
	if cnf.Workbook.TemplatePath == "" {
		return false, "Workbook template path not configured"
	}
	if _, err := os.Stat(cnf.Workbook.TemplatePath); err != nil {
		return false, "Workbook template not found: " + cnf.Workbook.TemplatePath
	}
	return true, ""
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
